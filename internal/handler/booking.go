package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// BookingRequest is the body of POST /bookings and PUT /bookings/{id}.
// The owner always comes from the caller's token, never from the body.
type BookingRequest struct {
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	WasherUses int        `json:"washer_uses"`
	DryerUses  int        `json:"dryer_uses"`
}

// BookingResponse is the wire form of a booking.
type BookingResponse struct {
	ID             uuid.UUID `json:"id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Owner          string    `json:"owner"`
	OwnerName      string    `json:"owner_name,omitempty"`
	OwnerApartment string    `json:"owner_apartment,omitempty"`
	WasherUses     int       `json:"washer_uses"`
	DryerUses      int       `json:"dryer_uses"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UpdateResponse is the body of a successful PUT /bookings/{id}.
type UpdateResponse struct {
	RowsAffected int64 `json:"rows_affected"`
}

// RevisionResponse is one entry of GET /bookings/{id}/revisions.
type RevisionResponse struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	WasherUses int       `json:"washer_uses"`
	DryerUses  int       `json:"dryer_uses"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CreateBooking handles POST /bookings.
func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeBookingRequest(w, r)
	if !ok {
		return
	}

	created, err := s.bookings.Create(r.Context(), domain.Booking{
		Interval:   f.Interval,
		Owner:      callerName(r),
		WasherUses: f.WasherUses,
		DryerUses:  f.DryerUses,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingToResponse(created))
}

// ListBookings handles GET /bookings?start=&end=.
// Returns bookings lying fully inside the window; other residents' usage
// counters are zeroed.
func (s *Server) ListBookings(w http.ResponseWriter, r *http.Request) {
	start, end, err := bindWindow(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	bookings, err := s.bookings.ListInWindow(r.Context(), callerName(r), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingsToResponse(bookings))
}

// ListOverlappingBookings handles GET /bookings/overlapping?start=&end=.
// Returns every booking intersecting the window, for rendering a schedule.
func (s *Server) ListOverlappingBookings(w http.ResponseWriter, r *http.Request) {
	start, end, err := bindWindow(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	bookings, err := s.bookings.ListOverlapping(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingsToResponse(domain.VisibleAll(bookings, callerName(r))))
}

// GetBooking handles GET /bookings/{id}. Only the owner can read a booking
// this way; everyone else gets 404.
func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := bindID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	b, err := s.bookings.Get(r.Context(), callerName(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// UpdateBooking handles PUT /bookings/{id}.
// A missing booking, someone else's booking, and a conflicting interval all
// yield the same 404 so callers learn nothing about other residents' bookings.
func (s *Server) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := bindID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	f, ok := decodeBookingRequest(w, r)
	if !ok {
		return
	}

	rows, err := s.bookings.Update(r.Context(), callerName(r), id, f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if rows == 0 {
		notFound(w, "booking not found or not permitted")
		return
	}
	writeJSON(w, http.StatusOK, UpdateResponse{RowsAffected: rows})
}

// DeleteBooking handles DELETE /bookings/{id}.
func (s *Server) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := bindID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	rows, err := s.bookings.Delete(r.Context(), callerName(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if rows == 0 {
		notFound(w, "booking not found or not permitted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBookingRevisions handles GET /bookings/{id}/revisions.
// Other residents' bookings yield an empty list.
func (s *Server) ListBookingRevisions(w http.ResponseWriter, r *http.Request) {
	id, err := bindID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	revs, err := s.bookings.History(r.Context(), callerName(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]RevisionResponse, len(revs))
	for i, rev := range revs {
		out[i] = RevisionResponse{
			ID:         rev.ID,
			Kind:       string(rev.Kind),
			StartTime:  rev.Interval.Start,
			EndTime:    rev.Interval.End,
			WasherUses: rev.WasherUses,
			DryerUses:  rev.DryerUses,
			RecordedAt: rev.RecordedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- mapping helpers --------------------------------------------------------

// decodeBookingRequest reads and checks the request body. On failure it has
// already written the response and returns ok == false.
func decodeBookingRequest(w http.ResponseWriter, r *http.Request) (domain.BookingFields, bool) {
	var body BookingRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return domain.BookingFields{}, false
		}
		invalidBody(w, "request body must be a JSON booking: "+err.Error())
		return domain.BookingFields{}, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		invalidBody(w, "request body must contain a single JSON booking")
		return domain.BookingFields{}, false
	}
	if body.StartTime == nil || body.EndTime == nil {
		invalidBody(w, "start_time and end_time are required")
		return domain.BookingFields{}, false
	}
	return domain.BookingFields{
		Interval:   domain.Interval{Start: *body.StartTime, End: *body.EndTime},
		WasherUses: body.WasherUses,
		DryerUses:  body.DryerUses,
	}, true
}

func bookingToResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		StartTime:      b.Interval.Start,
		EndTime:        b.Interval.End,
		Owner:          b.Owner,
		OwnerName:      b.OwnerName,
		OwnerApartment: b.OwnerApartment,
		WasherUses:     b.WasherUses,
		DryerUses:      b.DryerUses,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

// bookingsToResponse never returns nil, so an empty listing encodes as [].
func bookingsToResponse(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bs))
	for i, b := range bs {
		out[i] = bookingToResponse(b)
	}
	return out
}
