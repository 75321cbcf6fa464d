package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAuthClient_SimpleModeSetsHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("apikey")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := CreateAuthClient(httpclient.AuthModeSimple, "anon-key", "apikey", time.Second, false)
	require.NoError(t, err)

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "anon-key", got)
}

func TestCreateRetryClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c, err := CreateRetryClient(time.Second, false, 2, 10*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateOptimizedTransport(t *testing.T) {
	tr := CreateOptimizedTransport(true)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, 20, tr.MaxIdleConnsPerHost)
}
