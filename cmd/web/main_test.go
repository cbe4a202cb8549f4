package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"tool-rack-lookup/internal"
	"tool-rack-lookup/internal/config"
	"tool-rack-lookup/internal/models"
	"tool-rack-lookup/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// slowStore blocks GetTool until release is closed or the request context ends.
type slowStore struct {
	started chan struct{}
	release chan struct{}
}

func (s *slowStore) ListCustomers(context.Context) ([]models.Customer, error) { return nil, nil }

func (s *slowStore) ListToolsByCustomer(context.Context, int64) ([]models.Tool, error) {
	return nil, nil
}

func (s *slowStore) GetTool(ctx context.Context, id int64) (*models.Tool, error) {
	close(s.started)
	select {
	case <-s.release:
		return &models.Tool{ID: id, ToolNo: "T-7", RackNo: "23", Location: "Bay A"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *slowStore) Ping(context.Context) error { return nil }

var _ store.Store = (*slowStore)(nil)

func TestShutdownDrainsInFlightRequests(t *testing.T) {
	st := &slowStore{started: make(chan struct{}), release: make(chan struct{})}
	srv, err := internal.New(st, &config.Config{
		Environment:    "test",
		RateLimitBurst: 1,
	}, zap.NewNop(), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, zap.NewNop(), newHTTPServer(srv.Router), ln, 5*time.Second)
	}()

	type result struct {
		status int
		body   string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
		resp, err := client.Get("http://" + ln.Addr().String() + "/tool/7")
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		done <- result{status: resp.StatusCode, body: string(body), err: err}
	}()

	<-st.started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(st.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "Tool #T-7")
	assert.NotContains(t, res.body, "Error loading tool")
	assert.NoError(t, <-served)
}
