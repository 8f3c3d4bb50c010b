// Package cli implements the sitesync command line interface.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/logging"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// Exit codes.
const (
	ExitCodeSuccess = 0
	// ExitCodeError indicates a failed deployment or an unexpected error.
	ExitCodeError = 1
	// ExitCodeConfig indicates invalid configuration or arguments.
	ExitCodeConfig = 2
	// ExitCodeInterrupted indicates the run was interrupted.
	ExitCodeInterrupted = 130
)

// Deployer is the part of *sitesync.Client used by the commands.
type Deployer interface {
	Plan(ctx context.Context, target *sitesync.DeployTarget) (*synctypes.Plan, error)
	Deploy(ctx context.Context, target *sitesync.DeployTarget, opts ...synctypes.DeployOption) (*synctypes.DeployResult, error)
}

// ClientFactory builds a Deployer for one target.
type ClientFactory func(ctx context.Context, opts ...synctypes.Option) (Deployer, error)

// App holds the process-level dependencies of the commands.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// FS is where the config file and the local trees are read from.
	FS fs.Filesystem

	NewClient ClientFactory

	// Color enables ANSI colors in plan output.
	Color bool

	Version string

	reader *bufio.Reader
}

// NewApp returns an App wired to the process streams and the OS filesystem.
func NewApp() *App {
	return &App{
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		FS:        billy.NewOSFS("/"),
		NewClient: newClient,
		Color:     term.IsTerminal(int(os.Stdout.Fd())),
		Version:   "dev",
	}
}

func newClient(ctx context.Context, opts ...synctypes.Option) (Deployer, error) {
	return sitesync.New(ctx, opts...)
}

// Run executes the command line and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	cmd := a.RootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(a.In)
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(a.Err, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch errors.CodeOf(err) {
	case "":
		return ExitCodeSuccess
	case errors.CodeInvalidConfig, errors.CodeInvalidInput:
		return ExitCodeConfig
	case errors.CodeCanceled:
		return ExitCodeInterrupted
	default:
		return ExitCodeError
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

// RootCommand builds the command tree.
func (a *App) RootCommand() *cobra.Command {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:   "sitesync",
		Short: "Deploy static sites to S3",
		Long: `sitesync reconciles a built static site with an S3 bucket.

It uploads new and changed files, optionally deletes files that no longer
exist locally, applies per-file cache-control rules and lists the CloudFront
paths that need invalidating.`,
		Version:       a.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "sitesync version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "sitesync.yaml", "path to the deploy config file")
	pf.StringVar(&gf.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&gf.logFormat, "log-format", "text", "log format (text, json)")
	pf.BoolVar(&gf.noColor, "no-color", false, "disable colored output")

	root.AddCommand(a.newDeployCmd(gf), a.newPlanCmd(gf))
	return root
}

func (a *App) logger(gf *globalFlags) (*slog.Logger, error) {
	return logging.New(gf.logLevel, gf.logFormat, a.Err)
}
