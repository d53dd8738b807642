package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"pkt.systems/pslog"
)

const shutdownTimeout = 2 * time.Second

// LocalServer is an HTTP server bound to an ephemeral loopback port.
type LocalServer struct {
	URL  string
	done chan error
}

// DefaultAddr binds an ephemeral loopback port.
const DefaultAddr = "127.0.0.1:0"

// ListenLocal serves handler on addr (DefaultAddr when empty) until ctx is
// cancelled.
func ListenLocal(ctx context.Context, addr string, handler http.Handler) (*LocalServer, error) {
	logger := pslog.Ctx(ctx)
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	server := &http.Server{
		Handler:           withRequestLogging(handler),
		ErrorLog:          pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	s := &LocalServer{
		URL:  "http://" + ln.Addr().String() + "/",
		done: make(chan error, 1),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
			<-errCh
			s.done <- nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			s.done <- err
		}
	}()
	logger.Debug("local http server listening", "url", s.URL)
	return s, nil
}

// Wait blocks until the server stops and returns its serve error, if any.
func (s *LocalServer) Wait() error {
	return <-s.done
}

// Page returns a handler serving body as text/html at the root path.
func Page(body []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	})
}
