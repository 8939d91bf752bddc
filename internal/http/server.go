package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer wraps the engine in an http.Server with sane timeouts.
func NewServer(addr string, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		// Reply production can chain two model calls.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
}

// Shutdown drains in-flight requests with a bounded grace period.
func Shutdown(srv *http.Server, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(ctx)
}
