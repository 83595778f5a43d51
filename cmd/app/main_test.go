package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServeLetsRunningRequestsFinish(t *testing.T) {
	assert := require.New(t)

	started := make(chan struct{})
	reqErr := make(chan error, 1)

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)

			// outlive the start of the shutdown
			time.Sleep(200 * time.Millisecond)
			reqErr <- r.Context().Err()

			_, _ = w.Write([]byte("done"))
		}),
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, srv, ln, 5*time.Second, slog.Default())
	}()

	type result struct {
		body string
		err  error
	}
	resp := make(chan result, 1)
	go func() {
		r, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			resp <- result{err: err}
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		resp <- result{body: string(body), err: err}
	}()

	<-started
	cancel()

	res := <-resp
	assert.NoError(res.err)
	assert.Equal("done", res.body)
	assert.NoError(<-reqErr, "shutting down must not cancel requests in flight")

	select {
	case err := <-served:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve didn't return after shutdown")
	}
}

func TestServeReturnsListenErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	err = serve(context.Background(), &http.Server{}, ln, time.Second, slog.Default())
	require.Error(t, err)
}
