package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func probe(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("record_store", down)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name        string
		critical    map[string]Checker
		nonCritical map[string]Checker
		wantCode    int
		wantStatus  Status
	}{
		{"no checkers", nil, nil, http.StatusOK, StatusUp},
		{"all up", map[string]Checker{"record_store": up}, map[string]Checker{"search_index": up, "redis": up}, http.StatusOK, StatusUp},
		{"non-critical down", map[string]Checker{"record_store": up}, map[string]Checker{"search_index": down}, http.StatusOK, StatusDegraded},
		{"critical down", map[string]Checker{"record_store": down}, map[string]Checker{"search_index": up}, http.StatusServiceUnavailable, StatusDown},
		{"both down", map[string]Checker{"record_store": down}, map[string]Checker{"redis": down}, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			for name, c := range tt.critical {
				h.RegisterCritical(name, c)
			}
			for name, c := range tt.nonCritical {
				h.RegisterNonCritical(name, c)
			}

			code, resp := probe(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.critical)+len(tt.nonCritical))
		})
	}
}

func TestReadinessHandler_ReportsPerCheckDetail(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("record_store", up)
	h.RegisterNonCritical("search_index", down)

	_, resp := probe(t, h)

	assert.Equal(t, CheckResult{Status: StatusUp, Critical: true}, resp.Checks["record_store"])
	assert.Equal(t, CheckResult{Status: StatusDown, Critical: false, Error: "connection refused"}, resp.Checks["search_index"])
}

func TestRegister_IsCriticalAndOverwrites(t *testing.T) {
	h := NewHandler()
	h.Register("record_store", down)
	code, _ := probe(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	h.Register("record_store", up)
	code, resp := probe(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Checks["record_store"].Critical)
}
