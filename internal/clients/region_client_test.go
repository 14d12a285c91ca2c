package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegionClient(url string) *RegionClient {
	rc := NewRegionClient(url, time.Second)
	rc.retries = 3
	rc.backoff = time.Millisecond
	return rc
}

func TestApplyRegionFilter_Success(t *testing.T) {
	var got RegionFilterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	ok, err := newTestRegionClient(srv.URL).ApplyRegionFilter(context.Background(), " Texas ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Texas", got.Region)
}

func TestApplyRegionFilter_EmptyBodyCountsAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ok, err := newTestRegionClient(srv.URL).ApplyRegionFilter(context.Background(), "Ohio")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplyRegionFilter_ReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"unknown region"}`))
	}))
	defer srv.Close()

	ok, err := newTestRegionClient(srv.URL).ApplyRegionFilter(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyRegionFilter_EmptyRegion(t *testing.T) {
	ok, err := newTestRegionClient("http://127.0.0.1:1").ApplyRegionFilter(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyRegion)
	assert.False(t, ok)
}

func TestApplyRegionFilter_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	ok, err := newTestRegionClient(srv.URL).ApplyRegionFilter(context.Background(), "Texas")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestApplyRegionFilter_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ok, err := newTestRegionClient(srv.URL).ApplyRegionFilter(context.Background(), "Texas")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestApplyRegionFilter_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestRegionClient(srv.URL).ApplyRegionFilter(context.Background(), "Texas")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegionClientHealthy(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	assert.True(t, newTestRegionClient(up.URL).Healthy(context.Background()))
	assert.False(t, newTestRegionClient(down.URL).Healthy(context.Background()))
}
