/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package orchestrator

import (
	"fmt"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
)

// SwitchoverOptions carries the optional SQL files a switchover runs on
// each side, per spec §4.4's ServerOperation.sql_file.
type SwitchoverOptions struct {
	DemotionSQLFile  string
	PromotionSQLFile string
}

// Switchover implements spec §4.4's switchover script: demote D, redirect
// every other slave of D onto P, let P catch up to D's post-flush
// gtid_binlog_pos, then promote P (which replays D's saved channel list
// onto itself via copy_slave_conns). D is assumed reachable; the whole
// sequence shares ctx's deadline and error sink.
func Switchover(ctx *opctx.OperationContext, agents map[string]*agent.ServerAgent, demote, promote *agent.ServerAgent, opts SwitchoverOptions) bool {
	if ok, reason := demote.CanBeDemotedSwitchover(); !ok {
		ctx.ErrorSink.Append("preflight", fmt.Errorf("demotion target not eligible: %s", reason))
		return false
	}
	if ok, reason := promote.CanBePromoted(agent.OperationSwitchover, demote.Key); !ok {
		ctx.ErrorSink.Append("preflight", fmt.Errorf("promotion target not eligible: %s", reason))
		return false
	}

	savedConns := copyExcludingTarget(demote.SlaveStatus(), promote.Key)
	savedEvents := demote.EnabledEvents()

	if err := ctx.RunStep("demote", func() error {
		return demote.Demote(ctx, agent.DemotionPlan{ToFromMaster: true, SQLFile: opts.DemotionSQLFile})
	}); err != nil {
		return false
	}

	redirectOtherSlaves(ctx, agents, demote, promote)

	if err := ctx.RunStep("catchup", func() error {
		return promote.CatchupToMaster(ctx, demote.GtidBinlogPos())
	}); err != nil {
		return false
	}

	if err := ctx.RunStep("promote", func() error {
		return promote.Promote(ctx, agent.PromotionPlan{
			ToFromMaster:   true,
			EventsToEnable: savedEvents,
			ConnsToCopy:    savedConns,
			SQLFile:        opts.PromotionSQLFile,
		}, agent.OperationSwitchover, demote.Key)
	}); err != nil {
		return false
	}

	return ctx.ErrorSink.Empty()
}

// redirectOtherSlaves implements spec §4.4 step 2: every slave agent
// S != P currently replicating from D gets its channel to D redirected
// to P. Each channel redirects independently; a failure on one channel
// is recorded but does not stop the remaining redirects, matching spec
// §7's "surviving partial state is reported".
func redirectOtherSlaves(ctx *opctx.OperationContext, agents map[string]*agent.ServerAgent, demote, promote *agent.ServerAgent) {
	for name, s := range agents {
		if s == demote || s == promote {
			continue
		}
		for _, conn := range s.SlaveStatus() {
			if !conn.MasterKey().Equals(demote.Key) {
				continue
			}
			channelName := conn.Name
			ctx.RunStep("redirect:"+name, func() error {
				return s.RedirectExistingSlaveConn(ctx, channelName, promote.Key)
			})
		}
	}
}

// copyExcludingTarget returns conns minus any channel already pointed at
// excluded -- spec §4.4's "D's saved channel list (minus the one to D
// itself)", read as "minus the channel that already targets the
// promotion target" since a channel can never target its own owner.
func copyExcludingTarget(conns []*mysql.SlaveStatus, excluded mysql.InstanceKey) []*mysql.SlaveStatus {
	var out []*mysql.SlaveStatus
	for _, c := range conns {
		if c.MasterKey().Equals(excluded) {
			continue
		}
		out = append(out, c)
	}
	return out
}
