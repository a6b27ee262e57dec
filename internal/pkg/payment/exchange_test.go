package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUSDToVNDFromAPI(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"base":"USD","rates":{"VND":25500.0,"EUR":0.92}}`))
	}))
	defer srv.Close()

	c := NewExchangeConverter(srv.URL)
	assert.Equal(t, int64(254745), c.USDToVND(context.Background(), 9.99))

	// Second conversion is served from the cache.
	c.USDToVND(context.Background(), 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestUSDToVNDFallbackOnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewExchangeConverter(srv.URL)
	assert.Equal(t, int64(9.99*FallbackUSDVNDRate), c.USDToVND(context.Background(), 9.99))
}

func TestUSDToVNDFallbackOnMissingVND(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	c := NewExchangeConverter(srv.URL)
	assert.Equal(t, int64(24000), c.USDToVND(context.Background(), 1))
}
