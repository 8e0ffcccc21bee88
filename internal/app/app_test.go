package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsDigest/internal/config"
	"NewsDigest/internal/infrastructure/push"
)

func healthCheckedApp(workerURL string, buf *bytes.Buffer) *Application {
	return &Application{
		logger:    slog.New(slog.NewTextHandler(buf, nil)),
		publisher: push.NewClient(config.PushConfig{WorkerURL: workerURL, Token: "t"}, nil),
	}
}

func TestWorkerHealthCheckWarnsWhenUnhealthy(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var buf bytes.Buffer
	healthCheckedApp(server.URL, &buf).checkWorkerHealth(context.Background())

	assert.Contains(t, buf.String(), "worker health check failed")
}

func TestWorkerHealthCheckQuietWhenHealthy(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	healthCheckedApp(server.URL, &buf).checkWorkerHealth(context.Background())

	assert.Empty(t, buf.String())
}
