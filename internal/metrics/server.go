package metrics

import (
	"context"
	"errors"
	"net/http"
	"nft-escrow-sol/pkg/logger"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server 暴露 /metrics，实现 go-zero service.Service
type Server struct {
	srv *http.Server
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start() {
	logger.Infof("[Metrics:Start] listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("[Metrics:Start] server exited: %v", err)
	}
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		logger.Warnf("[Metrics:Stop] shutdown: %v", err)
	}
}
