package watch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/msageha/flowguide/internal/logging"
)

// MetricsServer exposes a Prometheus gatherer on /metrics and /healthz.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	logger   *logging.Logger
	done     chan struct{}
}

// ListenMetrics binds addr and starts serving in the background.
func ListenMetrics(addr string, gatherer prometheus.Gatherer, logger *logging.Logger) (*MetricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	m := &MetricsServer{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		logger:   logger.With("metrics"),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(m.done)
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Errorf("metrics server error: %v", err)
		}
	}()
	m.logger.Infof("metrics listening on %s", ln.Addr())
	return m, nil
}

func (m *MetricsServer) Addr() string { return m.listener.Addr().String() }

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	err := m.server.Shutdown(ctx)
	<-m.done
	return err
}
