package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/twiddle/domain"
)

func TestRecorder_CountsByResult(t *testing.T) {
	r := NewRecorder()

	r.ObserveOperation("initial", 120*time.Millisecond, nil)
	r.ObserveOperation("initial", 80*time.Millisecond, nil)
	r.ObserveOperation("more", 10*time.Millisecond, fmt.Errorf("fetching older posts: %w", errors.New("boom")))
	r.ObserveOperation("more", time.Millisecond, domain.ErrStalePage)
	r.ObserveOperation("refresh", time.Millisecond, context.Canceled)
	r.ObserveOperation("refresh", time.Millisecond, domain.ErrUnauthenticated)
	r.SetStoredPosts(42)

	require.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("initial", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("more", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("more", "stale")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("refresh", "canceled")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("refresh", "unauthenticated")))
	require.Equal(t, 42.0, testutil.ToFloat64(r.posts))
	require.Equal(t, 3, testutil.CollectAndCount(r.latency))
}

func TestRecorder_HandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveOperation("login", time.Millisecond, nil)
	r.SetStoredPosts(7)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `twiddle_store_operations_total{op="login",result="ok"} 1`)
	require.Contains(t, string(body), "twiddle_store_posts 7")
	require.Contains(t, string(body), "go_goroutines")
}
