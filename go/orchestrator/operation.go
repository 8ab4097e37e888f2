/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package orchestrator sequences promote/demote/redirect operations
// across ServerAgents to perform a switchover or failover (spec §4.4).
// It imports go/agent and go/opctx; go/agent imports go/opctx, while
// go/opctx imports neither go/agent nor this package, and go/agent does
// not import this package, so there is no import cycle here.
package orchestrator

import (
	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
)

// ServerOperation is spec §3's plan for one side of a swap.
type ServerOperation struct {
	Target         *agent.ServerAgent
	ToFromMaster   bool
	HandleEvents   bool
	EventsToEnable map[string]bool
	ConnsToCopy    []*mysql.SlaveStatus
	SQLFile        string
}
