// Package httpserver builds HTTP servers with sane defaults for this project.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative timeouts. The handler is the
// fully-wired router; lifecycle management stays in main.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
