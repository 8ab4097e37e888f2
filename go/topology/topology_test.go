package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
)

func key(host string) mysql.InstanceKey {
	return mysql.InstanceKey{Hostname: host, Port: 3306}
}

func channel(masterHost string, masterServerID int64) *mysql.SlaveStatus {
	return &mysql.SlaveStatus{
		MasterHost:     masterHost,
		MasterPort:     3306,
		MasterServerID: masterServerID,
		IOState:        mysql.IOStateYes,
		SQLRunning:     true,
	}
}

func TestBuildGraphSimpleChain(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	slave := agent.NewWithSnapshot("slave", key("db1"), 2, []*mysql.SlaveStatus{channel("db0", 1)})

	agents := map[string]*agent.ServerAgent{"master": master, "slave": slave}
	BuildGraph(agents, Options{AssumeUniqueHostnames: true})

	assert.Empty(t, master.NodeData().Parents)
	assert.Equal(t, []string{"slave"}, master.NodeData().Children)
	assert.Equal(t, []string{"master"}, slave.NodeData().Parents)
}

func TestBuildGraphRecordsExternalMaster(t *testing.T) {
	slave := agent.NewWithSnapshot("slave", key("db1"), 2, []*mysql.SlaveStatus{channel("db-outside", 99)})
	agents := map[string]*agent.ServerAgent{"slave": slave}
	BuildGraph(agents, Options{AssumeUniqueHostnames: true})

	assert.Empty(t, slave.NodeData().Parents)
	assert.Len(t, slave.NodeData().ExternalMasters, 1)
}

func TestBuildGraphByServerID(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	slave := agent.NewWithSnapshot("slave", key("db1"), 2, []*mysql.SlaveStatus{channel("irrelevant-hostname", 1)})
	agents := map[string]*agent.ServerAgent{"master": master, "slave": slave}

	BuildGraph(agents, Options{AssumeUniqueHostnames: false})

	assert.Equal(t, []string{"master"}, slave.NodeData().Parents)
}

func TestStronglyConnectedComponentsDetectsTwoCycle(t *testing.T) {
	a := agent.NewWithSnapshot("a", key("db-a"), 1, []*mysql.SlaveStatus{channel("db-b", 2)})
	b := agent.NewWithSnapshot("b", key("db-b"), 2, []*mysql.SlaveStatus{channel("db-a", 1)})
	agents := map[string]*agent.ServerAgent{"a": a, "b": b}

	BuildGraph(agents, Options{AssumeUniqueHostnames: true})
	StronglyConnectedComponents(agents)

	require.True(t, a.NodeData().HasCycle)
	require.True(t, b.NodeData().HasCycle)
	assert.Equal(t, a.NodeData().CycleID, b.NodeData().CycleID)
	assert.NotEqual(t, CycleNone, a.NodeData().CycleID)
}

func TestStronglyConnectedComponentsSingletonsHaveNoCycle(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	slave := agent.NewWithSnapshot("slave", key("db1"), 2, []*mysql.SlaveStatus{channel("db0", 1)})
	agents := map[string]*agent.ServerAgent{"master": master, "slave": slave}

	BuildGraph(agents, Options{AssumeUniqueHostnames: true})
	StronglyConnectedComponents(agents)

	assert.False(t, master.NodeData().HasCycle)
	assert.False(t, slave.NodeData().HasCycle)
	assert.Equal(t, CycleNone, master.NodeData().CycleID)
}

func TestLabelReachabilityPropagatesFromMaster(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	slave := agent.NewWithSnapshot("slave", key("db1"), 2, []*mysql.SlaveStatus{channel("db0", 1)})
	relay := agent.NewWithSnapshot("relay", key("db2"), 3, []*mysql.SlaveStatus{channel("db1", 2)})
	agents := map[string]*agent.ServerAgent{"master": master, "slave": slave, "relay": relay}

	BuildGraph(agents, Options{AssumeUniqueHostnames: true})
	LabelReachability(agents, CandidateMasters(agents))

	assert.Equal(t, agent.Reached, master.NodeData().ReachState)
	assert.Equal(t, agent.Reached, slave.NodeData().ReachState)
	assert.Equal(t, agent.Reached, relay.NodeData().ReachState)
}

func TestAssignRolesMasterSlaveRelay(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	relay := agent.NewWithSnapshot("relay", key("db1"), 2, []*mysql.SlaveStatus{channel("db0", 1)})
	leaf := agent.NewWithSnapshot("leaf", key("db2"), 3, []*mysql.SlaveStatus{channel("db1", 2)})
	agents := map[string]*agent.ServerAgent{"master": master, "relay": relay, "leaf": leaf}

	Analyze(agents, Options{AssumeUniqueHostnames: true}, nil)

	assert.True(t, master.HasStatusBit(agent.BitMaster))
	assert.True(t, relay.HasStatusBit(agent.BitSlave))
	assert.True(t, relay.HasStatusBit(agent.BitRelayMaster))
	assert.True(t, leaf.HasStatusBit(agent.BitSlave))
	assert.False(t, leaf.HasStatusBit(agent.BitRelayMaster))
}

func TestAssignRolesPreservesMaintenance(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	master.SetStatusBit(agent.BitMaintenance)
	agents := map[string]*agent.ServerAgent{"master": master}

	Analyze(agents, Options{AssumeUniqueHostnames: true}, nil)

	assert.True(t, master.HasStatusBit(agent.BitMaintenance))
	assert.True(t, master.HasStatusBit(agent.BitMaster))
}

func TestAssignRolesSetsAuthError(t *testing.T) {
	master := agent.NewWithSnapshot("master", key("db0"), 1, nil)
	agents := map[string]*agent.ServerAgent{"master": master}

	Analyze(agents, Options{AssumeUniqueHostnames: true}, map[string]bool{"master": true})

	assert.True(t, master.HasStatusBit(agent.BitAuthError))
}

func TestExternalMastersCollectsAcrossAgents(t *testing.T) {
	slave1 := agent.NewWithSnapshot("slave1", key("db1"), 2, []*mysql.SlaveStatus{channel("db-outside", 99)})
	slave2 := agent.NewWithSnapshot("slave2", key("db2"), 3, []*mysql.SlaveStatus{channel("db-outside", 99)})
	agents := map[string]*agent.ServerAgent{"slave1": slave1, "slave2": slave2}
	BuildGraph(agents, Options{AssumeUniqueHostnames: true})

	keys := ExternalMasters(agents)
	assert.Equal(t, 1, keys.Len())
	assert.True(t, keys.HasKey(key("db-outside")))
}

func TestRingDoesNotReceiveMasterBit(t *testing.T) {
	a := agent.NewWithSnapshot("a", key("db-a"), 1, []*mysql.SlaveStatus{channel("db-b", 2)})
	b := agent.NewWithSnapshot("b", key("db-b"), 2, []*mysql.SlaveStatus{channel("db-a", 1)})
	agents := map[string]*agent.ServerAgent{"a": a, "b": b}

	Analyze(agents, Options{AssumeUniqueHostnames: true}, nil)

	assert.False(t, a.HasStatusBit(agent.BitMaster))
	assert.False(t, b.HasStatusBit(agent.BitMaster))
	assert.True(t, a.HasStatusBit(agent.BitSlave))
	assert.True(t, b.HasStatusBit(agent.BitSlave))
}
