/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"time"

	"github.com/mariadbmon/clustermon/go/gtidlist"
	"github.com/mariadbmon/clustermon/go/mysql"
)

// markAuthError records whether err is an authorization failure, so
// AuthError can report it between ticks without reclassifying the error
// on every read.
func (a *ServerAgent) markAuthError(err error) {
	a.arrayLock.Lock()
	a.authError = mysql.IsAccessDeniedError(err)
	a.arrayLock.Unlock()
}

// MonitorTick refreshes all cached state for one backend, per spec
// §4.2's monitor_tick sequence: probe capabilities once, then
// read_server_variables, update_replication_settings, update_slave_status,
// and -- when the backend is GTID-capable -- update_gtids. The enabled
// events are not read here: the cached set changes only through
// EnableEvents and DisableEvents.
func (a *ServerAgent) MonitorTick() error {
	if err := a.ensureConnection(); err != nil {
		a.markAuthError(err)
		return a.latchFailure(err)
	}

	caps := a.Capabilities()
	if !caps.Probed {
		probed, err := mysql.ProbeCapabilities(a.db)
		if err != nil {
			a.markAuthError(err)
			return a.latchFailure(err)
		}
		caps = *probed
		a.arrayLock.Lock()
		a.capabilities = caps
		a.arrayLock.Unlock()
	}

	if err := a.ReadServerVariables(); err != nil {
		a.markAuthError(err)
		return a.latchFailure(err)
	}

	if err := a.UpdateReplicationSettings(); err != nil {
		a.markAuthError(err)
		return a.latchFailure(err)
	}

	if err := a.UpdateSlaveStatus(); err != nil {
		a.markAuthError(err)
		return a.latchFailure(err)
	}

	if caps.GTID {
		if err := a.UpdateGtids(); err != nil {
			a.markAuthError(err)
			return a.latchFailure(err)
		}
	}

	a.markAuthError(nil)
	a.clearFailureLatch()
	return nil
}

// latchFailure records a transient query failure, logging it only on the
// first occurrence of a continuous failure run (spec §4.2: "emit it at
// most once per continuous failure run").
func (a *ServerAgent) latchFailure(err error) error {
	if !a.failureLatched {
		a.failureLatched = true
		a.log.Errorf("%s: monitor_tick failed: %v", a.Name, err)
	}
	return err
}

func (a *ServerAgent) clearFailureLatch() {
	a.failureLatched = false
}

// ReadServerVariables reads server_id, read_only and -- when GTID-capable
// -- gtid_domain_id, publishing under arrayLock.
func (a *ServerAgent) ReadServerVariables() error {
	caps := a.Capabilities()
	vars, err := mysql.ReadServerVariables(a.db, caps.GTID)
	if err != nil {
		return err
	}
	a.arrayLock.Lock()
	a.serverID = vars.ServerID
	a.readOnly = vars.ReadOnly
	if caps.GTID {
		a.gtidDomainID = vars.GtidDomainID
	}
	a.arrayLock.Unlock()
	return nil
}

// UpdateReplicationSettings reads gtid_strict_mode/log_bin/log_slave_updates.
func (a *ServerAgent) UpdateReplicationSettings() error {
	settings, err := mysql.ReadReplicationSettings(a.db)
	if err != nil {
		return err
	}
	a.arrayLock.Lock()
	a.replicationSettings = *settings
	a.arrayLock.Unlock()
	return nil
}

// UpdateGtids reads gtid_current_pos/gtid_binlog_pos and parses them.
func (a *ServerAgent) UpdateGtids() error {
	current, binlog, err := mysql.ReadGtidPositions(a.db)
	if err != nil {
		return err
	}
	currentList, err := gtidlist.Parse(current)
	if err != nil {
		a.log.Warningf("%s: malformed gtid_current_pos %q: %v", a.Name, current, err)
	}
	binlogList, err := gtidlist.Parse(binlog)
	if err != nil {
		a.log.Warningf("%s: malformed gtid_binlog_pos %q: %v", a.Name, binlog, err)
	}
	a.arrayLock.Lock()
	a.gtidCurrentPos = currentList
	a.gtidBinlogPos = binlogList
	a.arrayLock.Unlock()
	return nil
}

// UpdateSlaveStatus implements spec §4.2.1's merge invariant: issue
// SHOW [ALL] SLAVE[S] STATUS, build the new array, merge it against the
// previous tick's rows by (master_host, master_port) -- positional hint
// first, linear scan fallback -- carrying forward last_data_time and
// seen_connected, then publish atomically and recompute topology_changed.
func (a *ServerAgent) UpdateSlaveStatus() error {
	caps := a.Capabilities()
	useAllSlaves := caps.GTID || caps.ServerType == mysql.ServerTypeBinlogRouter

	rows, err := mysql.ShowSlaveStatus(a.db, useAllSlaves)
	if err != nil {
		return err
	}

	now := time.Now()
	a.arrayLock.Lock()
	old := a.slaveStatus
	merged := mergeSlaveStatus(old, rows, now)
	a.slaveStatus = merged
	a.topologyChanged = !mysql.TopologyEqualArrays(old, merged)
	a.arrayLock.Unlock()
	return nil
}

func mergeSlaveStatus(old, new []*mysql.SlaveStatus, now time.Time) []*mysql.SlaveStatus {
	for i, row := range new {
		prev := findPreviousRow(old, new, i, row)
		applyMerge(prev, row, now)
	}
	return new
}

// findPreviousRow locates the prior tick's row matching row's
// (master_host, master_port) identity: first by positional hint (index i
// in old), then a linear scan, per spec §4.2's merge rule.
func findPreviousRow(old, new []*mysql.SlaveStatus, i int, row *mysql.SlaveStatus) *mysql.SlaveStatus {
	if i < len(old) && old[i] != nil && old[i].MasterHost == row.MasterHost && old[i].MasterPort == row.MasterPort {
		return old[i]
	}
	for _, candidate := range old {
		if candidate != nil && candidate.MasterHost == row.MasterHost && candidate.MasterPort == row.MasterPort {
			return candidate
		}
	}
	return nil
}

// applyMerge carries forward last_data_time when the channel's observed
// position has not moved, and computes the sticky seen_connected per
// spec §4.2.1's CONNECTING-state carry rule (also spec §9's open
// question: do not latch across a changing master_server_id).
func applyMerge(prev, row *mysql.SlaveStatus, now time.Time) {
	if prev == nil {
		row.LastDataTime = now
		row.SeenConnected = row.IOState == mysql.IOStateYes && row.MasterServerID > 0
		return
	}

	if row.ReceivedHeartbeats == prev.ReceivedHeartbeats && row.GtidIOPos == prev.GtidIOPos {
		row.LastDataTime = prev.LastDataTime
	} else {
		row.LastDataTime = now
	}

	switch {
	case row.MasterServerID > 0 && row.IOState == mysql.IOStateYes:
		row.SeenConnected = true
	case row.IOState == mysql.IOStateConnecting:
		row.SeenConnected = prev.SeenConnected && row.MasterServerID == prev.MasterServerID
	default:
		row.SeenConnected = prev.SeenConnected
	}
}
