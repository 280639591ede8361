package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)
	m := <-ch
	require.NotNil(t, m)
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.FeedUpdated("customerOrders", 12)
	r.FeedUpdated("customerOrders", 13)
	r.FeedFailed("stock")
	r.ToastShown("new_order")
	r.ToastRemoved("expired")
	r.ReceiptSaved("file", nil)
	r.ReceiptSaved("s3", errors.New("denied"))

	assert.Equal(t, 2.0, counterValue(t, r.feedUpdates.WithLabelValues("customerOrders")))
	assert.Equal(t, 13.0, counterValue(t, r.feedRecords.WithLabelValues("customerOrders")))
	assert.Equal(t, 1.0, counterValue(t, r.feedErrors.WithLabelValues("stock")))
	assert.Equal(t, 1.0, counterValue(t, r.toastsShown.WithLabelValues("new_order")))
	assert.Equal(t, 1.0, counterValue(t, r.toastsRemoved.WithLabelValues("expired")))
	assert.Equal(t, 1.0, counterValue(t, r.receipts.WithLabelValues("file", "ok")))
	assert.Equal(t, 1.0, counterValue(t, r.receipts.WithLabelValues("s3", "error")))
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.FeedUpdated("notifications", 3)

	srv := httptest.NewServer(Router(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `orderdash_feed_records{collection="notifications"} 3`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", Router(prometheus.NewRegistry())) }()
	cancel()
	assert.NoError(t, <-done)
}
