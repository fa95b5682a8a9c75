package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fitdex/fitdex/pkg/auth"
	"github.com/fitdex/fitdex/pkg/config"
	"github.com/fitdex/fitdex/pkg/exercise"
	"github.com/fitdex/fitdex/pkg/exerciseapi"
	"github.com/fitdex/fitdex/pkg/favorites"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

const shellHelp = `Commands:
  list                      list favorites
  add <name>                add a favorite by name
  remove <name>             remove a favorite
  check <name>              is <name> a favorite?
  search <muscle>           search exercises by muscle group
  signin <email> <password> sign in
  signup <name> <email> <password>
  signout                   sign out
  whoami                    show the profile
  rename <name>             change the display name
  help                      show this help
  quit                      leave the shell`

var errQuit = errors.New("quit")

func newShellCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Start an interactive session. Store changes are printed as they happen,
the log level follows edits to the config file, and metrics can be served
over HTTP for the duration of the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if metricsAddr == "" {
				metricsAddr = a.cfg.Telemetry.Metrics.ListenAddress
			}
			if srv := a.tel.Metrics.StartMetricsServer(metricsAddr); srv != nil {
				log.Info().Str("addr", metricsAddr).Msg("Serving metrics")
				defer func() {
					shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
					defer done()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			watcher := config.NewWatcher(config.ResolvePath(configPath), a.logger)
			if err := watcher.Watch(ctx, func(cfg *config.Config) {
				telemetry.SetGlobalLevel(cfg.Telemetry.Logging.Level)
				log.Info().Str("level", cfg.Telemetry.Logging.Level).Msg("Configuration reloaded")
			}); err != nil {
				log.Warn().Err(err).Msg("Configuration changes will not be picked up")
			} else {
				defer watcher.Stop()
			}

			sh := newShell(a, cmd.OutOrStdout())
			defer sh.close()
			return sh.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

// shell is an interactive session over one app.
type shell struct {
	app     *app
	out     io.Writer
	api     *exerciseapi.Client
	cancels []func()
}

func newShell(a *app, out io.Writer) *shell {
	sh := &shell{app: a, out: out, api: a.apiClient()}

	sh.cancels = append(sh.cancels,
		a.favorites.Subscribe(func(e favorites.Event) {
			switch e.Kind {
			case favorites.EventAdded:
				fmt.Fprintf(out, "  [favorites] + %s (%d total)\n", e.Name, e.Count)
			case favorites.EventRemoved:
				fmt.Fprintf(out, "  [favorites] - %s (%d total)\n", e.Name, e.Count)
			case favorites.EventFailed:
				fmt.Fprintf(out, "  [favorites] ! %v\n", e.Err)
			}
		}),
		a.auth.Subscribe(func(e auth.Event) {
			switch e.Kind {
			case auth.EventFailed:
				fmt.Fprintf(out, "  [auth] ! %v\n", e.Err)
			case auth.EventSignedOut:
				fmt.Fprintln(out, "  [auth] signed out")
			case auth.EventHydrated:
			default:
				if e.User != nil {
					fmt.Fprintf(out, "  [auth] %s: %s <%s>\n", e.Kind, e.User.Name, e.User.Email)
				}
			}
		}),
	)
	return sh
}

func (sh *shell) close() {
	for _, cancel := range sh.cancels {
		cancel()
	}
}

func (sh *shell) prompt() {
	name := "guest"
	if u := sh.app.auth.User(); u != nil {
		name = u.Name
	}
	fmt.Fprintf(sh.out, "fitdex (%s)> ", name)
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(sh.out, "fitdex shell: %d favorites loaded. Type 'help' for commands.\n", sh.app.favorites.Len())

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	sh.prompt()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(sh.out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := sh.exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
			sh.prompt()
		}
	}
}

// exec runs one shell line.
func (sh *shell) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	fields := strings.Fields(rest)

	a := sh.app
	switch strings.ToLower(command) {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)

	case "quit", "exit":
		return errQuit

	case "list", "ls":
		return printExercises(sh.out, a.favorites.List(), nil)

	case "add":
		if rest == "" {
			return fmt.Errorf("usage: add <name>")
		}
		added, err := a.favorites.Add(ctx, exercise.Exercise{Name: rest})
		if err != nil {
			return err
		}
		if !added {
			fmt.Fprintf(sh.out, "%s is already a favorite\n", rest)
		}

	case "remove", "rm":
		if rest == "" {
			return fmt.Errorf("usage: remove <name>")
		}
		if !a.favorites.Contains(rest) {
			fmt.Fprintf(sh.out, "%s is not a favorite\n", rest)
			return nil
		}
		_, err := a.favorites.Remove(ctx, rest)
		return err

	case "check":
		if a.favorites.Contains(rest) {
			fmt.Fprintf(sh.out, "★ %s is a favorite\n", rest)
		} else {
			fmt.Fprintf(sh.out, "%s is not a favorite\n", rest)
		}

	case "search":
		if rest == "" {
			return fmt.Errorf("usage: search <muscle>")
		}
		results, err := sh.api.ByMuscle(ctx, rest)
		if err != nil {
			return err
		}
		return printExercises(sh.out, results, a.favorites.Contains)

	case "signin":
		if len(fields) != 2 {
			return fmt.Errorf("usage: signin <email> <password>")
		}
		_, err := a.auth.SignIn(ctx, fields[0], fields[1])
		return err

	case "signup":
		if len(fields) < 3 {
			return fmt.Errorf("usage: signup <name> <email> <password>")
		}
		n := len(fields)
		_, err := a.auth.SignUp(ctx, strings.Join(fields[:n-2], " "), fields[n-2], fields[n-1])
		return err

	case "signout":
		if !a.auth.IsAuthenticated() {
			fmt.Fprintln(sh.out, "Not signed in.")
			return nil
		}
		return a.auth.SignOut(ctx)

	case "whoami":
		return printUser(sh.out, a.auth.User())

	case "rename":
		if rest == "" {
			return fmt.Errorf("usage: rename <name>")
		}
		_, err := a.auth.UpdateProfile(ctx, auth.ProfileUpdate{Name: &rest})
		return err

	default:
		return fmt.Errorf("unknown command %q (try 'help')", command)
	}
	return nil
}
