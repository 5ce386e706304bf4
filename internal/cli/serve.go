package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	flag "github.com/spf13/pflag"

	"lifeos/internal/server"
)

const (
	shutdownGrace     = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ServeCmd returns the serve command.
func ServeCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("serve", flag.ContinueOnError),
		Usage: "serve",
		Short: "Run the dashboard server",
		Long: `Serve the dashboard API, the WebSocket push channel and the built client
until interrupted. The listen address comes from listen, PORT or --listen.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execServe(ctx, io, app)
		},
	}
}

func execServe(ctx context.Context, io *IO, app *App) error {
	srv := server.New(server.Deps{
		Tables:    app.Tables,
		Workspace: app.Workspace,
		Agent:     app.Agent,
		Hub:       app.Hub,
		Logger:    app.Log.With("component", "server"),
		StaticDir: app.Config.StaticDirAbs,
	})

	ln, err := net.Listen("tcp", app.Config.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	io.Println("lifeos dashboard listening on", ln.Addr().String())
	app.Log.InfoContext(ctx, "server started", "addr", ln.Addr().String(), "workspace", app.Config.WorkspaceDirAbs)

	errCh := make(chan error, 1)

	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	app.Log.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()

	// Push sessions are hijacked connections that Shutdown does not track.
	app.Hub.Close()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
