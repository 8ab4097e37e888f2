package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariadbmon/clustermon/go/mysql"
)

func newTestAgent(t *testing.T, name string) *ServerAgent {
	t.Helper()
	key, err := mysql.ParseInstanceKey("db1:3306")
	require.NoError(t, err)
	cfg := mysql.NewConnectionConfig()
	cfg.Key = *key
	cfg.User = "monitor"
	cfg.Password = "secret"
	return New(name, cfg)
}

func TestNewAgentStartsUnknown(t *testing.T) {
	a := newTestAgent(t, "node1")
	assert.Equal(t, UnknownServerID, a.ServerID())
	assert.True(t, a.IsMaster())
	assert.Equal(t, uint64(0), a.StatusBits())
}

func TestStatusBitRoundTrip(t *testing.T) {
	a := newTestAgent(t, "node1")
	a.SetStatusBit(BitMaster)
	assert.True(t, a.HasStatusBit(BitMaster))
	assert.False(t, a.HasStatusBit(BitSlave))

	a.ClearStatusBit(BitMaster)
	assert.False(t, a.HasStatusBit(BitMaster))
}

func TestSetStatusBitsTracksPrevious(t *testing.T) {
	a := newTestAgent(t, "node1")
	a.SetStatusBits(BitMaster)
	a.SetStatusBits(BitSlave)
	assert.Equal(t, BitSlave, a.StatusBits())
	assert.Equal(t, BitMaster, a.PrevStatusBits())
}

func TestCanBeDemotedSwitchoverRequiresLogBin(t *testing.T) {
	a := newTestAgent(t, "node1")
	ok, reason := a.CanBeDemotedSwitchover()
	assert.False(t, ok)
	assert.Contains(t, reason, "log_bin")
}

func TestCanBeDemotedFailoverRequiresBinlogPos(t *testing.T) {
	a := newTestAgent(t, "node1")
	ok, reason := a.CanBeDemotedFailover()
	assert.False(t, ok)
	assert.Contains(t, reason, "gtid_binlog_pos")
}

func TestCanBePromotedRejectsAlreadyMaster(t *testing.T) {
	a := newTestAgent(t, "node1")
	a.replicationSettings.LogBin = true
	target := mysql.InstanceKey{Hostname: "db0", Port: 3306}
	ok, reason := a.CanBePromoted(OperationSwitchover, target)
	assert.False(t, ok)
	assert.Contains(t, reason, "already a master")
}

func TestCanBePromotedRequiresChannelToTarget(t *testing.T) {
	a := newTestAgent(t, "node1")
	a.replicationSettings.LogBin = true
	a.slaveStatus = []*mysql.SlaveStatus{
		{MasterHost: "db9", MasterPort: 3306, IOState: mysql.IOStateYes, SQLRunning: true},
	}
	target := mysql.InstanceKey{Hostname: "db0", Port: 3306}
	ok, reason := a.CanBePromoted(OperationSwitchover, target)
	assert.False(t, ok)
	assert.Contains(t, reason, "no replication channel")
}

func TestQuoteDefinerSplitsOnLastAt(t *testing.T) {
	assert.Equal(t, "monitor@'10.0.0.1'", quoteDefiner("monitor@10.0.0.1"))
	assert.Equal(t, "monitor@'%'", quoteDefiner("monitor"))
}

func TestChanneled(t *testing.T) {
	assert.Equal(t, "STOP SLAVE", channeled("STOP SLAVE", ""))
	assert.Equal(t, "STOP SLAVE 'ch1'", channeled("STOP SLAVE", "ch1"))
}

func TestBuildChangeMasterEmbedsCredentials(t *testing.T) {
	target := mysql.InstanceKey{Hostname: "db2", Port: 3306}
	stmt := buildChangeMaster("ch1", target, "repl", "s3cr3t", true)
	assert.Contains(t, stmt, "MASTER_SSL=1")
	assert.Contains(t, stmt, "s3cr3t")
	assert.Contains(t, stmt, "db2")
}

func TestRedactedChangeMasterElidesPassword(t *testing.T) {
	target := mysql.InstanceKey{Hostname: "db2", Port: 3306}
	stmt := redactedChangeMaster("ch1", target)
	assert.NotContains(t, stmt, "s3cr3t")
	assert.Contains(t, stmt, "MASTER_PASSWORD=***")
}
