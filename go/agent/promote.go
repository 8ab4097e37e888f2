/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"time"

	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
)

// PromotionPlan is the promotion side of the per-side plan spec §3 calls
// ServerOperation; go/orchestrator builds one of these from its own
// ServerOperation value for each promote() call so this package never
// needs to import the orchestrator (which in turn needs *ServerAgent).
type PromotionPlan struct {
	ToFromMaster   bool
	EventsToEnable map[string]bool
	ConnsToCopy    []*mysql.SlaveStatus
	SQLFile        string
}

// Promote implements spec §4.2/§4.4's promote step: on a switchover, stop
// and reset all of P's channels (on a failover P keeps its channels; the
// caller has already removed the one to the failed master), then -- when
// crossing the master boundary -- clear
// read_only, enable the recorded events, run an optional SQL file, and
// finally copy_slave_conns: replay D's saved channel list onto this
// agent, redirecting any channel that would otherwise point back at
// itself (master_server_id == this agent's id) to demotionTarget instead.
func (a *ServerAgent) Promote(ctx *opctx.OperationContext, plan PromotionPlan, kind OperationKind, demotionTarget mysql.InstanceKey) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}

	if kind == OperationSwitchover {
		if err := a.ResetAllSlaveConns(ctx); err != nil {
			return fmt.Errorf("promote %s: reset channels: %w", a.Name, err)
		}
	}

	if plan.ToFromMaster {
		if err := a.ExecuteCmdTimeLimit("SET GLOBAL read_only=0", ctx.StepBudget(5*time.Second)); err != nil {
			return fmt.Errorf("promote %s: clear read_only: %w", a.Name, err)
		}
		if len(plan.EventsToEnable) > 0 {
			if err := a.EnableEvents(ctx, plan.EventsToEnable); err != nil {
				return fmt.Errorf("promote %s: enable events: %w", a.Name, err)
			}
		}
		if plan.SQLFile != "" {
			if err := a.runSQLFile(ctx, plan.SQLFile); err != nil {
				return fmt.Errorf("promote %s: promotion_sql_file: %w", a.Name, err)
			}
		}
	}

	ownID := a.ServerID()
	for _, conn := range plan.ConnsToCopy {
		target := conn.MasterKey()
		if conn.MasterServerID == ownID {
			target = demotionTarget
		}
		if err := a.AddSlaveConn(ctx, conn.Name, target); err != nil {
			return fmt.Errorf("promote %s: copy_slave_conns channel %q: %w", a.Name, conn.Name, err)
		}
	}
	return nil
}

// AddSlaveConn creates a new replication channel on this agent (as
// distinct from RedirectExistingSlaveConn, which assumes the channel
// already exists and must first be stopped).
func (a *ServerAgent) AddSlaveConn(ctx *opctx.OperationContext, channelName string, target mysql.InstanceKey) error {
	stmt := buildChangeMaster(channelName, target, ctx.ReplicationUser, ctx.ReplicationPassword, ctx.ReplicationSSL)
	a.log.Infof("%s: %s", a.Name, redactedChangeMaster(channelName, target))
	if err := a.ExecuteCmdTimeLimit(stmt, ctx.StepBudget(5*time.Second)); err != nil {
		return err
	}
	return a.startSlave(channelName, ctx)
}

func (a *ServerAgent) runSQLFile(ctx *opctx.OperationContext, path string) error {
	statements, err := readSQLFileStatements(path)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if err := a.ExecuteCmdTimeLimit(stmt, ctx.StepBudget(5*time.Second)); err != nil {
			return err
		}
	}
	return nil
}
