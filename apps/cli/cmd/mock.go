package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/httpconnect/packages/mock"
)

// WatchDebounceDelay is the debounce delay for routes file events
const WatchDebounceDelay = 300 * time.Millisecond

var (
	mockPortFlag  int
	mockDelayFlag time.Duration
	mockWatchFlag bool
)

var mockCmd = &cobra.Command{
	Use:   "mock <routes.yaml>",
	Short: "Start a mock server from a routes file",
	Long: `Start an HTTP mock server that answers with canned responses.

The routes file lists method, path and response for each route. Paths use
chi patterns and {{param}} in a body is replaced with the matched value:

  routes:
    - method: GET
      path: /users/{id}
      response:
        status: 200
        body: '{"id": "{{id}}"}'

Examples:
  httpconnect mock routes.yaml
  httpconnect mock routes.yaml --port 3000 --delay 100ms
  httpconnect mock routes.yaml --watch -v`,
	Args: cobra.ExactArgs(1),
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", 3000, "Port to run the mock server on")
	mockCmd.Flags().DurationVarP(&mockDelayFlag, "delay", "d", 0, "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVarP(&mockWatchFlag, "watch", "w", false, "Reload routes when the file changes")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	logger := newLogger(cmd.ErrOrStderr(), verboseFlag)

	routes, err := mock.LoadRoutes(path)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	if len(routes) == 0 {
		return withExitCode(ExitConfigError, fmt.Errorf("no routes found in %s", path))
	}

	server := mock.NewServer(
		mock.WithPort(mockPortFlag),
		mock.WithDelay(mockDelayFlag),
		mock.WithLogger(logger),
	)
	if err := server.SetRoutes(routes); err != nil {
		return withExitCode(ExitConfigError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d routes from %s\n", len(routes), path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mockWatchFlag {
		watcher, err := watchRoutes(ctx, path, server, cmd)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	return server.StartWithContext(ctx)
}

// watchRoutes reloads the routes file on every write until ctx is done.
// A file that fails to load leaves the previous routes in place.
func watchRoutes(ctx context.Context, path string, server *mock.Server, cmd *cobra.Command) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		routes, err := mock.LoadRoutes(path)
		if err == nil && len(routes) == 0 {
			err = fmt.Errorf("no routes found in %s", path)
		}
		if err == nil {
			err = server.SetRoutes(routes)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %d routes from %s\n", len(routes), path)
	}

	go func() {
		var debounceTimer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			}
		}
	}()
	return watcher, nil
}
