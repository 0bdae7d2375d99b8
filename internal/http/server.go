package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

// Server wraps the gin engine in an http.Server so shutdown can drain
// in-flight plan builds and assessment submits instead of dropping them.
type Server struct {
	log  *logger.Logger
	http *http.Server
}

func NewServer(log *logger.Logger, addr string, engine *gin.Engine) *Server {
	return &Server{
		log: log,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run blocks until the listener fails or Shutdown completes. A clean
// shutdown reports nil.
func (s *Server) Run() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.http == nil {
		return nil
	}
	if s.log != nil {
		s.log.Info("Draining in-flight requests...")
	}
	return s.http.Shutdown(ctx)
}
