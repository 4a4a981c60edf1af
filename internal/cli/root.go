package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tasktracker/pkg/client"
)

var errNotLoggedIn = errors.New("not logged in, run `taskctl login` first")

type globalOptions struct {
	apiURL    string
	statePath string
	timeout   time.Duration
	verbose   bool
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	opts   globalOptions
	logger *slog.Logger
	client *client.Client
	state  stateFile
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Command line client for the task tracker API",
		Long: `Command line client for the task tracker API.

The refresh cookie is kept in a local state file so that a login survives
between invocations. Access tokens only live in memory.

Examples:
  taskctl login --email ana@example.com --password secret123
  taskctl projects create "Launch" --description "Q4 launch"
  taskctl tasks add <project-id> "Write release notes" --due 2024-10-15
  taskctl tasks move <project-id> <task-id> in-progress
  taskctl tasks list <project-id> --board`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.apiURL, "api", envOr("TASKCTL_API", "http://localhost:4000"), "API base URL")
	flags.StringVar(&a.opts.statePath, "state", envOr("TASKCTL_STATE", defaultStatePath()), "File holding the refresh cookie")
	flags.DurationVar(&a.opts.timeout, "timeout", 15*time.Second, "Timeout for one command")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log token refreshes and retries to stderr")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProjectsCmd(a),
		newTasksCmd(a),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init(stderr io.Writer) error {
	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a.client = client.New(a.opts.apiURL, client.NewSession(), client.WithLogger(a.logger))
	a.state = stateFile{path: a.opts.statePath}
	return a.state.load(a.client.Jar(), a.client.BaseURL())
}

// run executes fn under the command timeout. With needAuth it first trades
// the stored refresh cookie for an access token. The cookie is persisted
// afterwards whatever the outcome, since a refresh rotates it.
func (a *app) run(cmd *cobra.Command, needAuth bool, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.opts.timeout)
	defer cancel()

	err := func() error {
		if needAuth && !a.client.Bootstrap(ctx) {
			return errNotLoggedIn
		}
		return fn(ctx)
	}()

	if serr := a.state.save(a.client.Jar(), a.client.BaseURL()); serr != nil {
		err = errors.Join(err, serr)
	}
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
