/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package orchestrator

import (
	"fmt"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/opctx"
)

// RejoinDetached reconfigures node to replicate from newMaster using
// MASTER_USE_GTID=current_pos, the supplemented auto-rejoin operation
// for a node that fell out of the topology (e.g. after a failed
// failover left it pointed at a dead or now-demoted node). It reuses
// RedirectExistingSlaveConn when node already has a channel toward
// newMaster or the node it was last known to follow, else creates one.
func RejoinDetached(ctx *opctx.OperationContext, node, newMaster *agent.ServerAgent) error {
	channelName := findChannelTo(node, newMaster.Key)
	if channelName == "" {
		if conns := node.SlaveStatus(); len(conns) > 0 {
			channelName = conns[0].Name
			if err := node.RedirectExistingSlaveConn(ctx, channelName, newMaster.Key); err != nil {
				return fmt.Errorf("rejoin %s onto %s: %w", node.Name, newMaster.Name, err)
			}
			return nil
		}
		if err := node.AddSlaveConn(ctx, "", newMaster.Key); err != nil {
			return fmt.Errorf("rejoin %s onto %s: %w", node.Name, newMaster.Name, err)
		}
		return nil
	}

	if err := node.RedirectExistingSlaveConn(ctx, channelName, newMaster.Key); err != nil {
		return fmt.Errorf("rejoin %s onto %s: %w", node.Name, newMaster.Name, err)
	}
	return nil
}
