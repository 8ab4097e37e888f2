/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"

	"github.com/mariadbmon/clustermon/go/mysql"
)

// OperationKind distinguishes a switchover (old master still alive) from
// a failover (old master is down) for the gate predicates of spec §4.2.
type OperationKind int

const (
	OperationSwitchover OperationKind = iota
	OperationFailover
)

// CanBeDemotedSwitchover implements spec §4.2's switchover-demote gate:
// binlog on, is master or (slave and log_slave_updates on), non-empty
// gtid_binlog_pos.
func (a *ServerAgent) CanBeDemotedSwitchover() (bool, string) {
	settings := a.ReplicationSettings()
	if !settings.LogBin {
		return false, fmt.Sprintf("%s: log_bin is off", a.Name)
	}
	if !a.IsMaster() && !settings.LogSlaveUpdates {
		return false, fmt.Sprintf("%s: is a slave without log_slave_updates", a.Name)
	}
	if a.GtidBinlogPos().IsEmpty() {
		return false, fmt.Sprintf("%s: gtid_binlog_pos is empty", a.Name)
	}
	return true, ""
}

// CanBeDemotedFailover implements spec §4.2's failover-demote gate: the
// caller has already established the master is unreachable; this checks
// only the remaining condition, a non-empty gtid_binlog_pos from the
// last successful observation.
func (a *ServerAgent) CanBeDemotedFailover() (bool, string) {
	if a.GtidBinlogPos().IsEmpty() {
		return false, fmt.Sprintf("%s: last-known gtid_binlog_pos is empty", a.Name)
	}
	return true, ""
}

// CanBePromoted implements spec §4.2's promote gate: not already master,
// has a slave channel to counterpart using GTID, for switchover that
// channel's IO thread must be running (no such constraint for
// failover), binlog on; for switchover additionally not low-on-disk.
func (a *ServerAgent) CanBePromoted(kind OperationKind, counterpart mysql.InstanceKey) (bool, string) {
	settings := a.ReplicationSettings()
	if !settings.LogBin {
		return false, fmt.Sprintf("%s: log_bin is off", a.Name)
	}
	if a.IsMaster() {
		return false, fmt.Sprintf("%s: is already a master", a.Name)
	}

	channel := a.channelToward(counterpart)
	if channel == nil {
		return false, fmt.Sprintf("%s: has no replication channel to the demotion target", a.Name)
	}
	if channel.GtidIOPos == "" {
		return false, fmt.Sprintf("%s: replication channel to the demotion target is not using GTID", a.Name)
	}
	if kind == OperationSwitchover && channel.IOState != mysql.IOStateYes {
		return false, fmt.Sprintf("%s: replication channel to the demotion target is not running", a.Name)
	}
	if kind == OperationSwitchover && a.LowDiskSpace {
		return false, fmt.Sprintf("%s: low on disk space", a.Name)
	}
	return true, ""
}

func (a *ServerAgent) channelToward(target mysql.InstanceKey) *mysql.SlaveStatus {
	for _, s := range a.SlaveStatus() {
		if s.MasterKey().Equals(target) {
			return s
		}
	}
	return nil
}
