package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
)

func key(host string) mysql.InstanceKey {
	return mysql.InstanceKey{Hostname: host, Port: 3306}
}

func channelTo(name, host string, serverID int64) *mysql.SlaveStatus {
	return &mysql.SlaveStatus{
		Name:           name,
		MasterHost:     host,
		MasterPort:     3306,
		MasterServerID: serverID,
		IOState:        mysql.IOStateYes,
		SQLRunning:     true,
		GtidIOPos:      "0-101-5",
	}
}

func TestSwitchoverPreflightRejectsIneligiblePromotionTarget(t *testing.T) {
	demote := agent.NewWithSnapshot("D", key("d-host"), 101, nil).WithGtidBinlogPos("0-101-5")
	promote := agent.NewWithSnapshot("P", key("p-host"), 202, nil)

	agents := map[string]*agent.ServerAgent{"D": demote, "P": promote}
	ctx := opctx.New(30*time.Second, "repl", "secret", false)

	ok := Switchover(ctx, agents, demote, promote, SwitchoverOptions{})
	assert.False(t, ok)
	assert.False(t, ctx.ErrorSink.Empty())
}

func TestCopyExcludingTargetFiltersChannelToPromotionTarget(t *testing.T) {
	conns := []*mysql.SlaveStatus{
		channelTo("ch1", "p-host", 202),
		channelTo("ch2", "x-host", 303),
	}
	out := copyExcludingTarget(conns, key("p-host"))
	assert := assert.New(t)
	assert.Len(out, 1)
	assert.Equal("ch2", out[0].Name)
}

func TestMergeSlaveConnsFiltersDuplicatesAndSelfTargets(t *testing.T) {
	promote := agent.NewWithSnapshot("P", key("p-host"), 202, []*mysql.SlaveStatus{
		channelTo("existing", "x-host", 303),
	})
	saved := []*mysql.SlaveStatus{
		channelTo("ch-to-p", "p-host", 202),  // targets P itself: filtered
		channelTo("existing", "x-host", 303), // duplicates P's existing channel by id: filtered
		channelTo("ch-new", "y-host", 404),   // kept
	}
	merged := mergeSlaveConns(saved, promote)
	assert.Len(t, merged, 1)
	assert.Equal(t, "ch-new", merged[0].Name)
}

func TestMergeSlaveConnsSynthesizesNameOnCollision(t *testing.T) {
	promote := agent.NewWithSnapshot("P", key("p-host"), 202, []*mysql.SlaveStatus{
		channelTo("shared", "x-host", 303),
	})
	saved := []*mysql.SlaveStatus{
		channelTo("shared", "y-host", 404),
	}
	merged := mergeSlaveConns(saved, promote)
	assert.Len(t, merged, 1)
	assert.Equal(t, "To y-host:3306", merged[0].Name)
}

func TestFindChannelTo(t *testing.T) {
	node := agent.NewWithSnapshot("node", key("n-host"), 1, []*mysql.SlaveStatus{
		channelTo("ch1", "d-host", 101),
	})
	assert.Equal(t, "ch1", findChannelTo(node, key("d-host")))
	assert.Equal(t, "", findChannelTo(node, key("nowhere")))
}
