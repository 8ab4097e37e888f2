/*
   Copyright 2016 GitHub Inc.
	 See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package mysql

import (
	gosql "database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/openark/golib/sqlutils"
)

// getInt64D mirrors sqlutils.RowMap's GetIntD, for the int64 case that
// this version of golib does not provide.
func getInt64D(m sqlutils.RowMap, key string, def int64) int64 {
	res, err := strconv.ParseInt(m.GetString(key), 10, 0)
	if err != nil {
		return def
	}
	return res
}

// IOState is the replica-side IO thread's connection state.
type IOState int

const (
	IOStateNo IOState = iota
	IOStateConnecting
	IOStateYes
)

// String renders IOState back to the SHOW SLAVE STATUS vocabulary, for
// logging and JSON export.
func (s IOState) String() string {
	switch s {
	case IOStateYes:
		return "Yes"
	case IOStateConnecting:
		return "Connecting"
	default:
		return "No"
	}
}

func ioStateFromString(s string) IOState {
	switch s {
	case "Yes":
		return IOStateYes
	case "Connecting":
		return IOStateConnecting
	default:
		return IOStateNo
	}
}

// UnknownServerID-typed sentinel for a slave channel's master_server_id, per spec §3.
const UnknownMasterServerID int64 = -1

// UndefinedSecondsBehindMaster is the sentinel for an unknown replication lag.
const UndefinedSecondsBehindMaster int32 = -1

// SlaveStatus is one replica-side replication channel snapshot, as defined
// in spec §3. GtidIOPos is kept as the raw text, so this package does not
// depend on gtidlist; go/agent compares it as a string.
type SlaveStatus struct {
	Name           string
	MasterHost     string
	MasterPort     int
	MasterServerID int64

	IOState     IOState
	SQLRunning  bool

	SecondsBehindMaster int32

	GtidIOPos string

	ReceivedHeartbeats uint64
	LastDataTime       time.Time

	// SeenConnected sticks true once IOState=Yes with a valid
	// MasterServerID is observed, per spec §4.2.1.
	SeenConnected bool

	LastError string
}

// MasterKey returns the (host, port) this channel targets.
func (s *SlaveStatus) MasterKey() InstanceKey {
	return InstanceKey{Hostname: s.MasterHost, Port: s.MasterPort}
}

// TopologyEquals implements the topology-equality of spec §3: two
// SlaveStatus rows are topology-equal iff (io_state, sql_running,
// master_host, master_port, master_server_id) match.
func (s *SlaveStatus) TopologyEquals(other *SlaveStatus) bool {
	if other == nil {
		return false
	}
	return s.IOState == other.IOState &&
		s.SQLRunning == other.SQLRunning &&
		s.MasterHost == other.MasterHost &&
		s.MasterPort == other.MasterPort &&
		s.MasterServerID == other.MasterServerID
}

// TopologyEqualArrays compares two SlaveStatus arrays elementwise (plus
// equal length), the array-level topology equality ServerAgent.update_slave_status
// uses to compute topology_changed.
func TopologyEqualArrays(a, b []*SlaveStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].TopologyEquals(b[i]) {
			return false
		}
	}
	return true
}

// expectedAllSlavesColumns / expectedSlaveColumns are the column counts
// spec §4.2.1 rejects a result set for falling short of: 42 columns for
// "SHOW ALL SLAVES STATUS" (MariaDB, multi-source), 40 for the classic
// single-channel "SHOW SLAVE STATUS".
const (
	expectedAllSlavesColumns = 42
	expectedSlaveColumns     = 40
)

// ErrUnexpectedColumnCount classifies the schema/protocol mismatch of
// spec §7: "unexpected column count... fatal for the current read".
type ErrUnexpectedColumnCount struct {
	Got, Want int
	Query     string
}

func (e *ErrUnexpectedColumnCount) Error() string {
	return fmt.Sprintf("mysql: %s returned %d columns, expected at least %d", e.Query, e.Got, e.Want)
}

// ShowSlaveStatus issues SHOW ALL SLAVES STATUS when useAllSlaves is true
// (GTID-capable or binlog-router backends), else SHOW SLAVE STATUS, and
// scans each row into a SlaveStatus. The column-count gate of spec
// §4.2.1 is enforced via the row map's column list before field access.
func ShowSlaveStatus(db *gosql.DB, useAllSlaves bool) ([]*SlaveStatus, error) {
	query := "show slave status"
	want := expectedSlaveColumns
	if useAllSlaves {
		query = "show all slaves status"
		want = expectedAllSlavesColumns
	}

	var rows []*SlaveStatus
	var columnCountErr error
	checkedColumns := false

	err := sqlutils.QueryRowsMap(db, query, func(m sqlutils.RowMap) error {
		if !checkedColumns {
			checkedColumns = true
			if len(m) < want {
				columnCountErr = &ErrUnexpectedColumnCount{Got: len(m), Want: want, Query: query}
				return columnCountErr
			}
		}
		status := &SlaveStatus{
			Name:           m.GetStringD("Connection_name", ""),
			MasterHost:     m.GetString("Master_Host"),
			MasterPort:     m.GetInt("Master_Port"),
			MasterServerID: getInt64D(m, "Master_Server_Id", UnknownMasterServerID),
			IOState:        ioStateFromString(m.GetString("Slave_IO_Running")),
			SQLRunning:     m.GetString("Slave_SQL_Running") == "Yes",
			GtidIOPos:      m.GetStringD("Gtid_IO_Pos", ""),
			LastError:      firstNonEmpty(m.GetStringD("Last_IO_Error", ""), m.GetStringD("Last_SQL_Error", "")),
		}
		if sbm := m.GetNullInt64("Seconds_Behind_Master"); sbm.Valid {
			status.SecondsBehindMaster = int32(sbm.Int64)
		} else {
			status.SecondsBehindMaster = UndefinedSecondsBehindMaster
		}
		rows = append(rows, status)
		return nil
	})
	if err != nil {
		if columnCountErr != nil {
			return nil, columnCountErr
		}
		return nil, err
	}
	return rows, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
