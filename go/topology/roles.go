/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package topology

import "github.com/mariadbmon/clustermon/go/agent"

// AssignRoles implements spec §4.3 step 4: set MASTER, SLAVE,
// SLAVE_OF_EXT_MASTER, and RELAY_MASTER on each agent's status word
// according to the graph BuildGraph/StronglyConnectedComponents/
// LabelReachability left on its NodeData. AUTH_ERROR is set for any
// name present in authErrors. MAINTENANCE is preserved verbatim from
// the previous publish, per spec §4.3's "preserve MAINTENANCE across
// ticks".
//
// A node inside a multi-master ring is not masterless (it replicates
// from its ring partner), so it naturally receives SLAVE rather than
// MASTER here -- matching spec §8 scenario 3's "neither receives MASTER
// unless external policy selects a representative"; this analyzer does
// not implement that external policy.
func AssignRoles(agents map[string]*agent.ServerAgent, authErrors map[string]bool) {
	for name, a := range agents {
		node := a.NodeData()

		var bits uint64
		if a.HasStatusBit(agent.BitMaintenance) {
			bits |= agent.BitMaintenance
		}

		switch {
		case len(node.Parents) == 0 && len(node.ExternalMasters) == 0:
			bits |= agent.BitMaster
		case len(node.ExternalMasters) > 0 && len(node.Parents) == 0:
			bits |= agent.BitSlaveOfExtMaster
		default:
			bits |= agent.BitSlave
		}

		if len(node.ExternalMasters) > 0 && len(node.Parents) > 0 {
			bits |= agent.BitSlaveOfExtMaster
		}
		if len(node.Parents) > 0 && len(node.Children) > 0 {
			bits |= agent.BitRelayMaster
		}
		if authErrors[name] {
			bits |= agent.BitAuthError
		}
		if a.LowDiskSpace {
			bits |= agent.BitDiskSpaceExhausted
		}
		bits |= agent.BitRunning

		a.SetStatusBits(bits)
	}
}
