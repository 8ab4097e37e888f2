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

// Failover implements spec §4.4's failover script: D is unreachable, so
// only P's channel to D is removed (D's own demote is skipped); P then
// catches up to D's last-known gtid_binlog_pos and is promoted with
// merge_slave_conns replaying D's last-known channel set onto P's own.
func Failover(ctx *opctx.OperationContext, agents map[string]*agent.ServerAgent, demote, promote *agent.ServerAgent, opts SwitchoverOptions) bool {
	if ok, reason := demote.CanBeDemotedFailover(); !ok {
		ctx.ErrorSink.Append("preflight", fmt.Errorf("failed node not eligible: %s", reason))
		return false
	}
	if ok, reason := promote.CanBePromoted(agent.OperationFailover, demote.Key); !ok {
		ctx.ErrorSink.Append("preflight", fmt.Errorf("promotion target not eligible: %s", reason))
		return false
	}

	savedConns := demote.SlaveStatus()
	savedEvents := demote.EnabledEvents()
	channelToD := findChannelTo(promote, demote.Key)

	if channelToD != "" {
		if err := ctx.RunStep("remove_dead_channel", func() error {
			return promote.RemoveSlaveConn(ctx, channelToD)
		}); err != nil {
			return false
		}
	}

	redirectOtherSlaves(ctx, agents, demote, promote)

	if err := ctx.RunStep("catchup", func() error {
		return promote.CatchupToMaster(ctx, demote.GtidBinlogPos())
	}); err != nil {
		return false
	}

	merged := mergeSlaveConns(savedConns, promote)

	if err := ctx.RunStep("promote", func() error {
		return promote.Promote(ctx, agent.PromotionPlan{
			ToFromMaster:   true,
			EventsToEnable: savedEvents,
			ConnsToCopy:    merged,
			SQLFile:        opts.PromotionSQLFile,
		}, agent.OperationFailover, demote.Key)
	}); err != nil {
		return false
	}

	return ctx.ErrorSink.Empty()
}

func findChannelTo(a *agent.ServerAgent, target mysql.InstanceKey) string {
	for _, s := range a.SlaveStatus() {
		if s.MasterKey().Equals(target) {
			return s.Name
		}
	}
	return ""
}

// mergeSlaveConns implements spec §4.4's merge_slave_conns: merge saved
// (D's last-known channels) into the promotion target's own channel
// list, filtering any that target P itself by id or host:port, or
// duplicate an existing P channel by id or by host:port. Name
// collisions are resolved with a synthesized unique name.
func mergeSlaveConns(saved []*mysql.SlaveStatus, promote *agent.ServerAgent) []*mysql.SlaveStatus {
	existing := promote.SlaveStatus()
	existingNames := map[string]bool{}
	for _, c := range existing {
		existingNames[c.Name] = true
	}

	var merged []*mysql.SlaveStatus
	for _, c := range saved {
		if c.MasterKey().Equals(promote.Key) || c.MasterServerID == promote.ServerID() {
			continue
		}
		if duplicatesExisting(c, existing) {
			continue
		}
		name := c.Name
		if existingNames[name] {
			name = fmt.Sprintf("To %s", c.MasterKey().String())
		}
		existingNames[name] = true

		copied := *c
		copied.Name = name
		merged = append(merged, &copied)
	}
	return merged
}

func duplicatesExisting(c *mysql.SlaveStatus, existing []*mysql.SlaveStatus) bool {
	for _, e := range existing {
		if e.MasterServerID == c.MasterServerID || e.MasterKey().Equals(c.MasterKey()) {
			return true
		}
	}
	return false
}
