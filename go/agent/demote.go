/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"time"

	"github.com/openark/golib/sqlutils"

	"github.com/mariadbmon/clustermon/go/opctx"
)

// DemotionPlan is the demotion side of spec §3's ServerOperation,
// narrowed to what Demote needs (see PromotionPlan for why this package
// defines its own plan type instead of importing the orchestrator's).
type DemotionPlan struct {
	ToFromMaster bool
	SQLFile      string
}

// Demote implements spec §4.2/§4.4's demote step. Steps are ordered so
// the step most likely to fail -- SET GLOBAL read_only=1 -- runs before
// events/files; if a later step fails, a best-effort read_only=0 restore
// is attempted once, without retries (spec §4.4 "Ordering & rollback").
// Beyond that, no rollback is attempted.
func (a *ServerAgent) Demote(ctx *opctx.OperationContext, plan DemotionPlan) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}

	if err := a.ResetAllSlaveConns(ctx); err != nil {
		return fmt.Errorf("demote %s: reset channels: %w", a.Name, err)
	}

	if !plan.ToFromMaster {
		return nil
	}

	a.ClearStatusBit(BitMaster)

	if err := a.KickOutSuperUsers(ctx); err != nil {
		return fmt.Errorf("demote %s: kick_out_super_users: %w", a.Name, err)
	}

	if err := a.ExecuteCmdTimeLimit("SET GLOBAL read_only=1", ctx.StepBudget(5*time.Second)); err != nil {
		return fmt.Errorf("demote %s: set read_only: %w", a.Name, err)
	}

	if err := a.demoteRemainingSteps(ctx, plan); err != nil {
		a.restoreReadOnlyBestEffort()
		return err
	}
	return nil
}

func (a *ServerAgent) demoteRemainingSteps(ctx *opctx.OperationContext, plan DemotionPlan) error {
	if _, err := a.DisableEvents(ctx, true); err != nil {
		return fmt.Errorf("demote %s: disable_events: %w", a.Name, err)
	}

	if plan.SQLFile != "" {
		if err := a.runSQLFile(ctx, plan.SQLFile); err != nil {
			return fmt.Errorf("demote %s: demotion_sql_file: %w", a.Name, err)
		}
	}

	if err := a.ExecuteCmdTimeLimit("FLUSH LOGS", ctx.StepBudget(5*time.Second)); err != nil {
		return fmt.Errorf("demote %s: flush_logs: %w", a.Name, err)
	}

	if err := a.UpdateGtids(); err != nil {
		return fmt.Errorf("demote %s: re-read gtid positions: %w", a.Name, err)
	}
	return nil
}

// restoreReadOnlyBestEffort attempts to clear read_only after a later
// demote step failed: a single direct statement, not retried and not
// bounded by the shared deadline (which may already be exhausted). Its own
// failure is only logged -- spec §4.4: "Beyond this, no rollback is attempted".
func (a *ServerAgent) restoreReadOnlyBestEffort() {
	if a.db == nil {
		return
	}
	if _, err := sqlutils.ExecNoPrepare(a.db, "SET GLOBAL read_only=0"); err != nil {
		a.log.Warningf("%s: best-effort read_only restore failed: %v", a.Name, err)
	}
}
