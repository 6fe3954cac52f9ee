package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// usageCSVHeaders defines the column names written as the first row of the
// admin usage CSV.
var usageCSVHeaders = []string{
	"owner", "name", "apartment", "month", "year", "sum_washer_uses", "sum_dryer_uses",
}

// GetUsage handles GET /usage?start=&end=: the caller's own monthly usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	start, end, err := bindWindow(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	records, err := s.usage.ForResident(r.Context(), callerName(r), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetAdminUsage handles GET /admin/usage?start=&end=&format=json|csv.
// Every resident's monthly usage joined with their name and apartment.
// Use format=csv to receive CSV; default is JSON.
func (s *Server) GetAdminUsage(w http.ResponseWriter, r *http.Request) {
	start, end, err := bindWindow(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	format := "json"
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, err)
		return
	}
	if format != "json" && format != "csv" {
		badRequest(w, fmt.Errorf("format must be json or csv, got %q", format))
		return
	}

	records, err := s.usage.ForAdmin(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if format == "csv" {
		writeUsageCSV(w, records)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// writeUsageCSV encodes records as CSV with a header row.
func writeUsageCSV(w http.ResponseWriter, records []domain.UsageRecord) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(usageCSVHeaders)
	for _, rec := range records {
		//nolint:errcheck
		cw.Write([]string{
			rec.Owner,
			rec.Name,
			rec.Apartment,
			rec.Month,
			strconv.Itoa(rec.Year),
			strconv.Itoa(rec.SumWasherUses),
			strconv.Itoa(rec.SumDryerUses),
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="usage.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
