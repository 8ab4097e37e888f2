/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package mysql

import (
	gosql "database/sql"
	"strings"

	version "github.com/hashicorp/go-version"
)

// ServerType distinguishes a MariaDB/MySQL backend from a binlog router
// (a specialized relay identified by the presence of @@maxscale_version),
// per spec §3/§9 "no inheritance needed": the capability record picks the
// query set instead of a class hierarchy.
type ServerType int

const (
	ServerTypeUnknown ServerType = iota
	ServerTypeNormal
	ServerTypeBinlogRouter
)

// Capabilities records what a probed backend supports, computed once per
// agent lifetime and cached; a reconnect does not trigger a new probe.
type Capabilities struct {
	Probed           bool
	BasicSupport     bool
	GTID             bool
	MaxStatementTime bool
	ServerType       ServerType
	VersionString    string
}

// ProbeCapabilities issues the binlog-router sentinel query and, on its
// absence, decodes the version string into a Capabilities record.
func ProbeCapabilities(db *gosql.DB) (*Capabilities, error) {
	caps := &Capabilities{Probed: true}

	var maxscaleVersion string
	if err := db.QueryRow("select @@maxscale_version").Scan(&maxscaleVersion); err == nil {
		caps.ServerType = ServerTypeBinlogRouter
		caps.BasicSupport = true
		caps.GTID = true
		caps.VersionString = maxscaleVersion
		return caps, nil
	}

	var versionString string
	if err := db.QueryRow("select @@version").Scan(&versionString); err != nil {
		return nil, err
	}
	caps.ServerType = ServerTypeNormal
	caps.VersionString = versionString
	caps.BasicSupport = true
	caps.GTID = strings.Contains(strings.ToLower(versionString), "mariadb") && atLeast(versionString, "10.0.2")
	caps.MaxStatementTime = atLeast(versionString, "10.1.2")
	return caps, nil
}

// atLeast reports whether the MariaDB portion of versionString (the
// dash-delimited numeric prefix before any "-MariaDB" suffix) parses to at
// least floor. Non-parseable versions are treated as not meeting floor,
// matching "all operations total" from spec §4.1's parsing philosophy.
func atLeast(versionString, floor string) bool {
	numericPrefix := versionString
	if idx := strings.IndexAny(versionString, "-+~ "); idx >= 0 {
		numericPrefix = versionString[:idx]
	}
	v, err := version.NewVersion(numericPrefix)
	if err != nil {
		return false
	}
	f, err := version.NewVersion(floor)
	if err != nil {
		return false
	}
	return v.GreaterThanOrEqual(f)
}

// ReplicationSettings mirrors @@gtid_strict_mode / @@log_bin / @@log_slave_updates.
type ReplicationSettings struct {
	GtidStrictMode  bool
	LogBin          bool
	LogSlaveUpdates bool
}

// ReadReplicationSettings issues the three-variable SELECT of spec §6.
func ReadReplicationSettings(db *gosql.DB) (*ReplicationSettings, error) {
	var settings ReplicationSettings
	err := db.QueryRow("select @@gtid_strict_mode, @@log_bin, @@log_slave_updates").Scan(
		&settings.GtidStrictMode, &settings.LogBin, &settings.LogSlaveUpdates,
	)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// ServerVariables mirrors the read_server_variables() read of spec §4.2.
type ServerVariables struct {
	ServerID     int64
	ReadOnly     bool
	GtidDomainID int64
}

// UnknownServerID is the sentinel spec §3 calls out for an unread server id.
const UnknownServerID int64 = -1

// ReadServerVariables reads server_id, read_only and, when the backend
// supports GTID, gtid_domain_id.
func ReadServerVariables(db *gosql.DB, gtidCapable bool) (*ServerVariables, error) {
	vars := &ServerVariables{ServerID: UnknownServerID}
	if gtidCapable {
		err := db.QueryRow("select @@global.server_id, @@read_only, @@global.gtid_domain_id").
			Scan(&vars.ServerID, &vars.ReadOnly, &vars.GtidDomainID)
		return vars, err
	}
	err := db.QueryRow("select @@global.server_id, @@read_only").Scan(&vars.ServerID, &vars.ReadOnly)
	return vars, err
}

// ReadGtidPositions reads @@gtid_current_pos and @@gtid_binlog_pos as raw
// text; parsing into a gtidlist.GtidList is the caller's job (go/agent),
// keeping this package free of a dependency on gtidlist.
func ReadGtidPositions(db *gosql.DB) (currentPos, binlogPos string, err error) {
	err = db.QueryRow("select @@gtid_current_pos, @@gtid_binlog_pos").Scan(&currentPos, &binlogPos)
	return currentPos, binlogPos, err
}
