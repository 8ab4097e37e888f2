/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package topology implements TopologyAnalyzer (spec §4.3): build a
// directed replication graph from every ServerAgent's cached slave
// status rows, find strongly connected components with an iterative
// Tarjan walk, label reachability from candidate masters, and assign
// role bits on each agent's shared status word.
package topology

import (
	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
)

// Options configures step 1 of spec §4.3's graph build.
type Options struct {
	// AssumeUniqueHostnames selects the parent lookup key: true looks up
	// by (master_host, master_port); false looks up by server id.
	AssumeUniqueHostnames bool
}

// BuildGraph implements spec §4.3 step 1: for each agent, for each
// SlaveStatus row with io_state in {CONNECTING, YES} and sql_running,
// resolve the parent among the monitored set and record a Parent/Child
// edge; unresolved masters are recorded in ExternalMasters.
func BuildGraph(agents map[string]*agent.ServerAgent, opts Options) {
	byKey := make(map[mysql.InstanceKey]*agent.ServerAgent, len(agents))
	byServerID := make(map[int64]*agent.ServerAgent, len(agents))
	for _, a := range agents {
		byKey[a.Key] = a
		if id := a.ServerID(); id != agent.UnknownServerID {
			byServerID[id] = a
		}
	}

	for _, a := range agents {
		node := a.NodeData()
		node.Parents = nil
		node.Children = nil
		node.ExternalMasters = map[string]mysql.InstanceKey{}
	}

	for name, a := range agents {
		node := a.NodeData()
		for _, s := range a.SlaveStatus() {
			if !isActiveChannel(s) {
				continue
			}

			var parent *agent.ServerAgent
			if opts.AssumeUniqueHostnames {
				parent = byKey[s.MasterKey()]
			} else if s.MasterServerID != mysql.UnknownMasterServerID {
				parent = byServerID[s.MasterServerID]
			}

			if parent == nil {
				node.ExternalMasters[s.Name] = s.MasterKey()
				continue
			}
			if parent.Name == name {
				continue
			}

			node.Parents = appendUnique(node.Parents, parent.Name)
			parentNode := parent.NodeData()
			parentNode.Children = appendUnique(parentNode.Children, name)
		}
	}
}

func isActiveChannel(s *mysql.SlaveStatus) bool {
	return s.SQLRunning && (s.IOState == mysql.IOStateConnecting || s.IOState == mysql.IOStateYes)
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
