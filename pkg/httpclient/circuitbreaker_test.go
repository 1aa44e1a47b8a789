package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

func testBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func doGet(t *testing.T, client *http.Client, url string) (*http.Response, error) {
	t.Helper()
	resp, err := client.Get(url)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return resp, err
}

func TestBreakerTransport_PassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	bt := NewBreakerTransport(nil, testBreakerConfig("pass"), logger.Discard())
	client := &http.Client{Transport: bt}

	for i := 0; i < 5; i++ {
		resp, err := doGet(t, client, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, bt.State(), "4xx must not trip the breaker")
}

func TestBreakerTransport_TripsOn5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bt := NewBreakerTransport(nil, testBreakerConfig("trip"), logger.Discard())
	client := &http.Client{Transport: bt}

	for i := 0; i < 3; i++ {
		resp, err := doGet(t, client, srv.URL)
		require.NoError(t, err, "5xx responses are still returned to the caller")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateOpen, bt.State())

	_, err := doGet(t, client, srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.EqualValues(t, 3, hits.Load(), "open breaker must not reach the upstream")
}

func TestBreakerTransport_RecoversAfterTimeout(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	bt := NewBreakerTransport(nil, testBreakerConfig("recover"), logger.Discard())
	client := &http.Client{Transport: bt}

	for i := 0; i < 3; i++ {
		_, _ = doGet(t, client, srv.URL)
	}
	require.Equal(t, gobreaker.StateOpen, bt.State())

	healthy.Store(true)
	time.Sleep(80 * time.Millisecond)

	resp, err := doGet(t, client, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, bt.State())
}

func TestRegisterMetrics_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg))
}

func TestNewTransport(t *testing.T) {
	tr := NewTransport(DefaultTransportConfig())
	assert.Equal(t, 100, tr.MaxConnsPerHost)
	assert.Equal(t, 90*time.Second, tr.IdleConnTimeout)
}
