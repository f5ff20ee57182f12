package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// SignalFlags holds flags for the start and complete commands
type SignalFlags struct {
	TaskID      string
	Description string
	APIUrl      string
	APITimeout  time.Duration
}

// StatusFlags holds flags for the status command
type StatusFlags struct {
	TaskID     string
	APIUrl     string
	APITimeout time.Duration
}

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	ConfigPath string
}

// buildRoot creates the root command with all subcommands attached
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	startFlags := &SignalFlags{}
	completeFlags := &SignalFlags{}
	statusFlags := &StatusFlags{}

	cbCommand := command{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createStartCommand(cbCommand, startFlags),
		createCompleteCommand(cbCommand, completeFlags),
		createStatusCommand(cbCommand, statusFlags),
		createValidateCommand(cbCommand, globalFlags),
		createServeCommand(globalFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "cronbeat",
		Short: "Cron job runtime monitoring and threshold alerting",
		Long: `Cronbeat watches externally scheduled cron jobs: the job wrapper signals
start and completion around each run, and cronbeat alerts when a run takes
longer than its declared runtime threshold or goes silent mid-run.

Examples:
  cronbeat serve --config=cronbeat.toml              # Start daemon
  cronbeat start --task=daily-report                 # Signal run start
  cronbeat complete --task=daily-report              # Signal run completion
  cronbeat status                                    # All tasks
  cronbeat status --api-url=http://remote:8080/api   # Remote status`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// createStartCommand creates the start subcommand
func createStartCommand(cbCommand command, flags *SignalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Signal the start of a task run",
		Long: `Signal the daemon that a new run of the task is beginning. The wrapper
script around a cron job calls this immediately before executing the job.

Examples:
  cronbeat start --task=daily-report
  cronbeat start --task=backup --description="weekly full backup"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cbCommand.Start(*flags)
		},
	}

	cmd.Flags().StringVar(&flags.TaskID, "task", "", "task identifier (required)")
	cmd.Flags().StringVar(&flags.Description, "description", "", "free-form run description")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)

	if err := cmd.MarkFlagRequired("task"); err != nil {
		panic(err)
	}

	return cmd
}

// createCompleteCommand creates the complete subcommand
func createCompleteCommand(cbCommand command, flags *SignalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Signal the completion of a task run",
		Long: `Signal the daemon that the open run of the task has finished. The daemon
evaluates the elapsed runtime against the task's threshold and prints the
verdict.

Examples:
  cronbeat complete --task=daily-report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cbCommand.Complete(*flags)
		},
	}

	cmd.Flags().StringVar(&flags.TaskID, "task", "", "task identifier (required)")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)

	if err := cmd.MarkFlagRequired("task"); err != nil {
		panic(err)
	}

	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(cbCommand command, flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show monitoring status of tasks",
		Long: `Show the monitoring view of one task or of every declared task, including
tasks that have never reported a start and in-flight runs already past
their threshold.

Examples:
  cronbeat status
  cronbeat status --task=daily-report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cbCommand.Status(*flags)
		},
	}

	cmd.Flags().StringVar(&flags.TaskID, "task", "", "task identifier (all tasks when empty)")
	addAPIFlags(cmd, &flags.APIUrl, &flags.APITimeout)

	return cmd
}

// createValidateCommand creates the validate subcommand
func createValidateCommand(cbCommand command, globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config.toml]",
		Short: "Validate a config file without starting the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			return cbCommand.Validate(path)
		},
	}
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the cronbeat daemon",
		Long: `Start the cronbeat daemon. All configuration is loaded from the TOML
config file: task declarations, heartbeat store, run history sink,
notifier, and HTTP listen address.

Examples:
  cronbeat serve --config=cronbeat.toml
  cronbeat serve cronbeat.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			return runServeCommand(serveFlags, args)
		},
	}

	return cmd
}

func addAPIFlags(cmd *cobra.Command, url *string, timeout *time.Duration) {
	cmd.Flags().StringVar(url, "api-url", "", "daemon URL (default http://127.0.0.1:8080/api)")
	cmd.Flags().DurationVar(timeout, "api-timeout", 10*time.Second, "request timeout")
}
