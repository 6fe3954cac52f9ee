package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/laundry-booking/backend/internal/auth"
	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

func usageFixture() []domain.UsageRecord {
	return []domain.UsageRecord{
		{Owner: "alice", Month: "Mar", Year: 2025, SumWasherUses: 18, SumDryerUses: 25, Name: "Alice, A.", Apartment: "1A"},
		{Owner: "bob", Month: "Mar", Year: 2025, SumWasherUses: 1, SumDryerUses: 0},
	}
}

// ---- GET /usage ------------------------------------------------------------

func TestGetUsage_200_Self(t *testing.T) {
	var gotCaller string
	svc := &mockUsageServicer{
		forResident: func(_ context.Context, caller string, _, _ time.Time) ([]domain.UsageRecord, error) {
			gotCaller = caller
			return usageFixture()[:1], nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, svc, alice).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", gotCaller)

	var resp []domain.UsageRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 18, resp[0].SumWasherUses)
	assert.Equal(t, 25, resp[0].SumDryerUses)
}

func TestGetUsage_401_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, &mockUsageServicer{}, nobody).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ---- GET /admin/usage ------------------------------------------------------

func TestGetAdminUsage_403_NotAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, &mockUsageServicer{}, alice).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAdminUsage_403_NotInDirectory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, &mockUsageServicer{}, auth.Identity{Username: "stranger"}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// failingDirectory is a handler.ResidentDirectory whose store is down.
type failingDirectory struct{}

func (failingDirectory) Lookup(context.Context, string) (domain.Resident, error) {
	return domain.Resident{}, errors.New("connection refused")
}

func TestGetAdminUsage_500_DirectoryUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandlerWithDirectory(nil, &mockUsageServicer{}, failingDirectory{}, admin).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

// TestGetAdminUsage_RoleFollowsDirectory verifies that promoting a resident
// in the directory is enough to open the admin report to them.
func TestGetAdminUsage_RoleFollowsDirectory(t *testing.T) {
	svc := &mockUsageServicer{
		forAdmin: func(context.Context, time.Time, time.Time) ([]domain.UsageRecord, error) {
			return []domain.UsageRecord{}, nil
		},
	}
	dir := mapDirectory{"alice": {Username: "alice", Role: domain.RoleAdmin}}

	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandlerWithDirectory(nil, svc, dir, alice).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAdminUsage_DefaultJSON(t *testing.T) {
	svc := &mockUsageServicer{
		forAdmin: func(context.Context, time.Time, time.Time) ([]domain.UsageRecord, error) {
			return usageFixture(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery, nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, svc, admin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp []domain.UsageRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "1A", resp[0].Apartment)
}

func TestGetAdminUsage_CSV(t *testing.T) {
	svc := &mockUsageServicer{
		forAdmin: func(context.Context, time.Time, time.Time) ([]domain.UsageRecord, error) {
			return usageFixture(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery+"&format=csv", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, svc, admin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3, "header row plus one row per record")
	assert.Equal(t, "owner,name,apartment,month,year,sum_washer_uses,sum_dryer_uses", lines[0])
	assert.Equal(t, `alice,"Alice, A.",1A,Mar,2025,18,25`, lines[1])
	assert.Equal(t, "bob,,,Mar,2025,1,0", lines[2])
}

func TestGetAdminUsage_CSV_EmptyResult_HasHeaderRow(t *testing.T) {
	svc := &mockUsageServicer{
		forAdmin: func(context.Context, time.Time, time.Time) ([]domain.UsageRecord, error) {
			return []domain.UsageRecord{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery+"&format=csv", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, svc, admin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "owner,"), "CSV should start with header row, got: %q", rec.Body.String())
}

func TestGetAdminUsage_400_UnknownFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/usage"+windowQuery+"&format=xml", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(nil, &mockUsageServicer{}, admin).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
