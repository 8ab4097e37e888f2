/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package topology

import "github.com/mariadbmon/clustermon/go/agent"

// Analyze runs spec §4.3's full four-step pass over the given agent set:
// build the graph, find strongly connected components, label
// reachability from every masterless node, and assign role bits.
// authErrors names the agents whose last probe failed authorization.
func Analyze(agents map[string]*agent.ServerAgent, opts Options, authErrors map[string]bool) {
	BuildGraph(agents, opts)
	StronglyConnectedComponents(agents)
	LabelReachability(agents, CandidateMasters(agents))
	AssignRoles(agents, authErrors)
}
