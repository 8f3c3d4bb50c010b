package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/fs"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/report"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/invalidation"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

type deployFlags struct {
	target      string
	verbose     bool
	purge       bool
	force       bool
	ci          bool
	dryRun      bool
	parallelism int
}

func (df *deployFlags) register(cmd *cobra.Command, withExecution bool) {
	f := cmd.Flags()
	f.StringVarP(&df.target, "target", "t", "", "deploy only the named target")
	f.BoolVarP(&df.verbose, "verbose", "v", false, "also list unchanged, ignored and unknown keys")
	f.BoolVar(&df.purge, "purge", false, "delete remote keys that do not exist locally")
	f.BoolVar(&df.force, "force", false, "upload every file even when unchanged")
	if withExecution {
		f.BoolVar(&df.ci, "ci", false, "do not ask for confirmation")
		f.BoolVar(&df.dryRun, "dry-run", false, "plan only, do not touch the bucket")
		f.IntVarP(&df.parallelism, "parallelism", "p", 0, "concurrent bucket operations (default from SITESYNC_PARALLELISM)")
	}
}

func (a *App) newDeployCmd(gf *globalFlags) *cobra.Command {
	df := &deployFlags{}
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the build to the bucket",
		Long: `Deploy plans every configured target, prints the plan and, after
confirmation, uploads and deletes keys to make the bucket match the build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), gf, df, true)
		},
	}
	df.register(cmd, true)
	return cmd
}

func (a *App) newPlanCmd(gf *globalFlags) *cobra.Command {
	df := &deployFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a deployment would change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), gf, df, false)
		},
	}
	df.register(cmd, false)
	return cmd
}

func (a *App) run(ctx context.Context, gf *globalFlags, df *deployFlags, execute bool) error {
	logger, err := a.logger(gf)
	if err != nil {
		return err
	}

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	path, err := fs.GetAbs(gf.configPath)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	file, err := config.Load(a.FS, path)
	if err != nil {
		return err
	}

	targets, err := file.Resolve(filepath.Dir(path), env, df.target)
	if err != nil {
		return err
	}

	parallelism := df.parallelism
	if parallelism <= 0 {
		parallelism = env.Parallelism
	}

	opts := report.Options{Verbose: df.verbose, Color: a.Color && !gf.noColor}
	for i := range targets {
		target := &targets[i]
		target.Purge = target.Purge || df.purge
		target.Force = target.Force || df.force

		client, err := a.NewClient(ctx,
			sitesync.WithRegion(target.Region),
			sitesync.WithEndpoint(target.Endpoint),
			sitesync.WithBackend(target.Backend),
			sitesync.WithForcePathStyle(target.ForcePathStyle),
			sitesync.WithFilesystem(a.FS),
			sitesync.WithParallelism(parallelism),
			sitesync.WithLogger(logger.With("target", target.Name)),
		)
		if err != nil {
			return err
		}

		fmt.Fprintf(a.Out, "Target %s: s3://%s/%s (%s)\n", target.Name, target.Bucket, target.Prefix, target.LocalPath)

		if !execute {
			plan, err := client.Plan(ctx, target)
			if err != nil {
				return err
			}
			paths := invalidation.Merge(invalidation.Paths(plan), target.InvalidatePaths...)
			a.showPlan(plan, paths, target, opts)
			continue
		}

		if err := a.deploy(ctx, client, target, df, opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) deploy(
	ctx context.Context,
	client Deployer,
	target *sitesync.DeployTarget,
	df *deployFlags,
	opts report.Options,
) error {
	// The confirm hook runs after planning and before any upload, so the plan
	// is printed there. With --ci it accepts without asking.
	shown := false
	confirm := func(_ context.Context, plan *synctypes.Plan, paths []string) (bool, error) {
		a.showPlan(plan, paths, target, opts)
		shown = true
		if df.ci {
			return true, nil
		}
		return a.confirm(fmt.Sprintf("Deploy %s to %s?", target.Name, target.Bucket))
	}

	result, err := client.Deploy(ctx, target, sitesync.WithDryRun(df.dryRun), sitesync.WithConfirm(confirm))
	if result != nil {
		if !shown && result.Plan != nil {
			a.showPlan(result.Plan, result.Invalidations, target, opts)
		}
		if result.Status == synctypes.DeployStatusNoChanges {
			fmt.Fprintln(a.Out, "No files to deploy")
		}
		report.Result(a.Out, result, opts)
	}
	return err
}

func (a *App) showPlan(plan *synctypes.Plan, invalidations []string, target *sitesync.DeployTarget, opts report.Options) {
	report.Plan(a.Out, plan, opts)
	report.Invalidations(a.Out, invalidations, target.DistributionIDs)

	if unknown := plan.Stats().ByAction[synctypes.ActionUnknown]; unknown > 0 && !target.Purge {
		fmt.Fprintf(a.Err, "Warning: %d remote keys do not exist locally; use --purge to delete them\n", unknown)
	}
}

// confirm asks a yes/no question on In. Anything but y or yes declines,
// including end of input.
func (a *App) confirm(question string) (bool, error) {
	fmt.Fprintf(a.Out, "%s [y/N]: ", question)

	if a.reader == nil {
		a.reader = bufio.NewReader(a.In)
	}
	answer, err := a.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
