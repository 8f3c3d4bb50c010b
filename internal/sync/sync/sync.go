// Package sync provides the deployment orchestration.
//
// A Manager runs the phases of a deployment in order: inventory and planning
// (scanner, lister, planner), invalidation derivation, confirmation and finally
// execution.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/executor"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/invalidation"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/planner"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/sitesync/synctypes"
)

// Manager coordinates the phases of a deployment.
type Manager struct {
	scanner  *scanner.LocalScanner
	lister   *scanner.RemoteLister
	executor *executor.Executor
	logger   *slog.Logger
}

// NewManager creates a new manager with the provided components.
func NewManager(
	sc *scanner.LocalScanner,
	ls *scanner.RemoteLister,
	ex *executor.Executor,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		scanner:  sc,
		lister:   ls,
		executor: ex,
		logger:   logger,
	}
}

// Plan scans both sides of target and returns the reconciliation plan.
func (m *Manager) Plan(ctx context.Context, target *synctypes.Target) (*synctypes.Plan, error) {
	pl, err := planner.NewPlanner(target.PlanOptions(), planner.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}

	locals := m.scanner.Scan(ctx, target.LocalPath, target.IncludeGlob, target.IgnoreGlob)
	remotes := m.lister.List(ctx, target.Bucket, target.Prefix)

	items, err := pl.Plan(ctx, locals, remotes)
	if err != nil {
		return nil, fmt.Errorf("failed to plan %s: %w", target.Name, err)
	}

	plan := &synctypes.Plan{
		Items:    items,
		Region:   target.Region,
		Bucket:   target.Bucket,
		Endpoint: target.Endpoint,
		Prefix:   target.Prefix,
	}

	stats := plan.Stats()
	m.logger.InfoContext(ctx, "planned deployment",
		"target", target.Name,
		"bucket", target.Bucket,
		"items", stats.Total,
		"create", stats.ByAction[synctypes.ActionCreate],
		"update", stats.ByAction[synctypes.ActionUpdate],
		"delete", stats.ByAction[synctypes.ActionDelete],
		"unchanged", stats.ByAction[synctypes.ActionUnchanged],
	)
	if unknown := stats.ByAction[synctypes.ActionUnknown]; unknown > 0 {
		m.logger.WarnContext(ctx, "remote keys not present locally; enable purge to delete them",
			"target", target.Name, "count", unknown)
	}
	return plan, nil
}

// Execute applies plan.
func (m *Manager) Execute(ctx context.Context, plan *synctypes.Plan) (*synctypes.ExecuteResult, error) {
	return m.executor.Execute(ctx, plan)
}

// Deploy plans target and, unless there is nothing to do, the run is a dry
// run or confirmation is declined, executes the plan.
func (m *Manager) Deploy(
	ctx context.Context,
	target *synctypes.Target,
	cfg *synctypes.DeployOptionConfig,
) (*synctypes.DeployResult, error) {
	plan, err := m.Plan(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &synctypes.DeployResult{
		Target: target.Name,
		Plan:   plan,
		DryRun: cfg.DryRun,
	}

	if !plan.HasChanges() {
		m.logger.InfoContext(ctx, "no files to deploy", "target", target.Name)
		result.Status = synctypes.DeployStatusNoChanges
		return result, nil
	}

	result.Invalidations = invalidation.Merge(invalidation.Paths(plan), target.InvalidatePaths...)
	if len(result.Invalidations) > 0 && len(target.DistributionIDs) == 0 {
		m.logger.WarnContext(ctx, "invalidation paths produced but no distribution id is configured",
			"target", target.Name, "paths", len(result.Invalidations))
	}

	if cfg.DryRun {
		m.logger.InfoContext(ctx, "dry run, skipping deployment", "target", target.Name)
		result.Status = synctypes.DeployStatusSuccess
		return result, nil
	}

	if cfg.Confirm != nil {
		ok, err := cfg.Confirm(ctx, plan, result.Invalidations)
		if err != nil {
			return nil, fmt.Errorf("failed to confirm deployment: %w", err)
		}
		if !ok {
			m.logger.InfoContext(ctx, "deployment canceled", "target", target.Name)
			result.Status = synctypes.DeployStatusCanceled
			return result, nil
		}
	}

	execution, err := m.Execute(ctx, plan)
	result.Execution = execution
	if err != nil {
		result.Status = synctypes.DeployStatusFailed
		return result, fmt.Errorf("failed to execute plan for %s: %w", target.Name, err)
	}

	m.logger.InfoContext(ctx, "deployment complete",
		"target", target.Name,
		"uploaded", execution.Uploaded,
		"deleted", execution.Deleted,
		"bytes", execution.BytesUploaded,
		"duration", execution.Duration,
	)
	result.Status = synctypes.DeployStatusSuccess
	return result, nil
}
