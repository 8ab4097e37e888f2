/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package diag

// SlaveConnectionSnapshot is the per-channel shape nested under
// AgentSnapshot.SlaveConnections in the JSON export of spec §6.
type SlaveConnectionSnapshot struct {
	Name          string `json:"name"`
	MasterHost    string `json:"master_host"`
	MasterPort    int    `json:"master_port"`
	IOState       string `json:"io_state"`
	SQLRunning    bool   `json:"sql_running"`
	GtidIOPos     string `json:"gtid_io_pos,omitempty"`
	SecondsBehind *int32 `json:"seconds_behind_master,omitempty"`
}

// AgentSnapshot is the per-agent export object named by spec §6: "object
// with keys name, server_id, read_only, gtid_current_pos, gtid_binlog_pos,
// master_group, slave_connections[]. Empty GTIDs and absent master group
// encode as null." Pointer/omitempty fields below produce exactly that.
type AgentSnapshot struct {
	Name             string                    `json:"name"`
	ServerID         int64                     `json:"server_id"`
	ReadOnly         bool                      `json:"read_only"`
	GtidCurrentPos   *string                   `json:"gtid_current_pos"`
	GtidBinlogPos    *string                   `json:"gtid_binlog_pos"`
	MasterGroup      *int64                    `json:"master_group"`
	SlaveConnections []SlaveConnectionSnapshot `json:"slave_connections"`
}

// nullIfEmpty returns nil (encodes as JSON null) for an empty GtidList
// string, else a pointer to s, implementing spec §6's "empty GTIDs...
// encode as null".
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewAgentSnapshot builds the export object for one agent. gtidCurrentPos
// and gtidBinlogPos are the GtidList.String() renderings; masterGroup is
// nil when the agent belongs to no cycle (spec §4.3's cycle_id, absent ==
// not part of a replication ring).
func NewAgentSnapshot(name string, serverID int64, readOnly bool, gtidCurrentPos, gtidBinlogPos string, masterGroup *int64, conns []SlaveConnectionSnapshot) AgentSnapshot {
	return AgentSnapshot{
		Name:             name,
		ServerID:         serverID,
		ReadOnly:         readOnly,
		GtidCurrentPos:   nullIfEmpty(gtidCurrentPos),
		GtidBinlogPos:    nullIfEmpty(gtidBinlogPos),
		MasterGroup:      masterGroup,
		SlaveConnections: conns,
	}
}
