package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cli/browser"

	"github.com/ben-burie/Stryde/internal/domain/page"
	"github.com/ben-burie/Stryde/internal/infra/config"
)

// Opener launches a URL in the user's browser.
type Opener func(url string) error

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	pages  *page.Registry
	open   Opener
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, pages *page.Registry) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With("component", "bootstrap"),
		server: server,
		pages:  pages,
		open:   browser.OpenURL,
	}
}

// Run starts the HTTP server and blocks until shutdown. Live pages are
// closed once the server stops accepting requests.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTP.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.HTTP.Address, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the server on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil {
			errCh <- err
		}
	}()

	if a.cfg.Browser.OpenOnStart {
		url := localURL(ln.Addr())
		if err := a.open(url); err != nil {
			a.logger.Warn("open browser failed", "url", url, "error", err)
		}
	}

	defer a.pages.CloseAll()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		// Hijacked websocket connections are not tracked by Shutdown; closing
		// the pages ends their sessions.
		a.pages.CloseAll()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func localURL(addr net.Addr) string {
	host := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok && (tcp.IP == nil || tcp.IP.IsUnspecified()) {
		host = fmt.Sprintf("127.0.0.1:%d", tcp.Port)
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host
	}
	return host + "/"
}
