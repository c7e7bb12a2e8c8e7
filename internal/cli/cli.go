package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vk/flowgrid/internal/app"
	"github.com/vk/flowgrid/internal/registry"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Options customise the command tree. Modules replaces the core modules,
// which is primarily for testing.
type Options struct {
	Modules  []registry.Module
	EnvFiles []string
}

// Execute runs the flowgrid command line with args.
func Execute(ctx context.Context, args []string, outW io.Writer, opts Options) error {
	cmd := NewRootCommand(outW, opts)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(outW io.Writer, opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowgrid",
		Short: "flowgrid executes component flows.",
		Long: `flowgrid executes flows of components wired by data edges and by a
shared context store, memoizing outputs between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyEnv(cmd, opts.EnvFiles)
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.Int("workers", 10, "Number of concurrent workers for the scheduler.")
	pf.Int("max-waves", 32, "Maximum number of context propagation waves per run.")
	pf.Int("http-port", 0, "Port for the HTTP API. 0 disables it for 'run'.")

	root.AddCommand(
		newRunCommand(outW, opts),
		newServeCommand(outW, opts),
		newComponentsCommand(outW, opts),
	)
	return root
}

func newRunCommand(outW io.Writer, opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [FLOW_PATH]",
		Short: "Run a flow once",
		Long: `Run loads a flow from a single .hcl, .yaml, .yml or .json file, or from a
directory containing such files, executes it and prints a summary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("flow")
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return usageError(errors.New("a flow path is required"))
			}
			cfg, err := configFrom(cmd, path)
			if err != nil {
				return err
			}
			a := app.NewApp(outW, cfg, opts.Modules...)
			defer a.Close(cmd.Context())
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringP("flow", "f", "", "Path to the flow file or directory.")
	return cmd
}

func newServeCommand(outW io.Writer, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd, "")
			if err != nil {
				return err
			}
			if cfg.HTTPPort == 0 {
				return usageError(errors.New("--http-port is required for serve"))
			}
			a := app.NewApp(outW, cfg, opts.Modules...)
			defer a.Close(cmd.Context())
			return a.Serve(cmd.Context())
		},
	}
}

func newComponentsCommand(outW io.Writer, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the registered components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd, "")
			if err != nil {
				return err
			}
			// Logs are not interesting here.
			cfg.LogLevel = "error"
			a := app.NewApp(io.Discard, cfg, opts.Modules...)

			w := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDISPLAY NAME\tBETA")
			for _, d := range a.Registry().Descriptors() {
				fmt.Fprintf(w, "%s\t%s\t%t\n", d.Name, d.DisplayName, d.Beta)
			}
			return w.Flush()
		},
	}
}

func configFrom(cmd *cobra.Command, flowPath string) (*app.Config, error) {
	flags := cmd.Flags()
	logFormat, _ := flags.GetString("log-format")
	logLevel, _ := flags.GetString("log-level")
	workers, _ := flags.GetInt("workers")
	maxWaves, _ := flags.GetInt("max-waves")
	port, _ := flags.GetInt("http-port")

	cfg, err := app.NewConfig(app.Config{
		FlowPath:    flowPath,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		WorkerCount: workers,
		MaxWaves:    maxWaves,
		HTTPPort:    port,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}
