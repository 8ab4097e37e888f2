/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package topology

import (
	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
)

// ExternalMasters collects every agent's unresolved ExternalMasters
// entries (BuildGraph step 1's "unresolved masters") into one
// deduplicated set, for a diagnostic listing of hosts the monitored
// cluster depends on but does not itself monitor.
func ExternalMasters(agents map[string]*agent.ServerAgent) *mysql.InstanceKeyMap {
	keys := mysql.NewInstanceKeyMap()
	for _, a := range agents {
		for _, key := range a.NodeData().ExternalMasters {
			keys.AddKey(key)
		}
	}
	return keys
}

// CandidateMasters returns the names of nodes with no internal parent --
// spec §4.3 step 3's starting points for reachability propagation.
func CandidateMasters(agents map[string]*agent.ServerAgent) []string {
	var candidates []string
	for name, a := range agents {
		if len(a.NodeData().Parents) == 0 {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// LabelReachability implements spec §4.3 step 3: starting from every
// candidate master, propagate Reached down the children adjacency built
// by BuildGraph; nodes never visited keep Unreached.
func LabelReachability(agents map[string]*agent.ServerAgent, candidates []string) {
	for _, a := range agents {
		a.NodeData().ReachState = agent.Unreached
	}

	var queue []string
	for _, name := range candidates {
		if a, ok := agents[name]; ok {
			a.NodeData().ReachState = agent.Reached
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, childName := range agents[name].NodeData().Children {
			child, ok := agents[childName]
			if !ok {
				continue
			}
			if child.NodeData().ReachState == agent.Reached {
				continue
			}
			child.NodeData().ReachState = agent.Reached
			queue = append(queue, childName)
		}
	}
}
