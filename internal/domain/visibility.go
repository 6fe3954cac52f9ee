package domain

// VisibleTo returns the projection of b that viewer is allowed to see.
//
// The owner sees the booking unchanged. Everyone else sees who booked the room
// and when, but both usage counters are zeroed. The stored booking is never
// modified; redaction happens on the value returned to the caller.
func VisibleTo(b Booking, viewer string) Booking {
	if viewer != "" && b.Owner == viewer {
		return b
	}
	b.WasherUses = 0
	b.DryerUses = 0
	return b
}

// VisibleAll applies VisibleTo to every booking of a listing.
// It always returns a non-nil slice so callers can safely range over it.
func VisibleAll(bookings []Booking, viewer string) []Booking {
	out := make([]Booking, len(bookings))
	for i, b := range bookings {
		out[i] = VisibleTo(b, viewer)
	}
	return out
}
