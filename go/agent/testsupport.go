/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"github.com/mariadbmon/clustermon/go/gtidlist"
	"github.com/mariadbmon/clustermon/go/mysql"
)

// NewWithSnapshot builds a ServerAgent preloaded with cached state,
// without opening a connection. go/topology and go/orchestrator tests
// use this to exercise the graph build, SCC, and orchestration scripts
// against known fixtures rather than a live backend.
func NewWithSnapshot(name string, key mysql.InstanceKey, serverID int64, slaveStatus []*mysql.SlaveStatus) *ServerAgent {
	a := New(name, (&mysql.ConnectionConfig{Key: key}))
	a.serverID = serverID
	a.slaveStatus = slaveStatus
	a.replicationSettings = mysql.ReplicationSettings{LogBin: true, LogSlaveUpdates: true}
	a.capabilities = mysql.Capabilities{Probed: true, BasicSupport: true, GTID: true}
	a.gtidCurrentPos = gtidlist.MustParse("")
	a.gtidBinlogPos = gtidlist.MustParse("")
	return a
}

// WithGtidBinlogPos sets the cached gtid_binlog_pos, for fixtures that
// need CanBeDemotedSwitchover/_Failover to pass.
func (a *ServerAgent) WithGtidBinlogPos(pos string) *ServerAgent {
	a.gtidBinlogPos = gtidlist.MustParse(pos)
	return a
}

// WithGtidCurrentPos sets the cached gtid_current_pos.
func (a *ServerAgent) WithGtidCurrentPos(pos string) *ServerAgent {
	a.gtidCurrentPos = gtidlist.MustParse(pos)
	return a
}
