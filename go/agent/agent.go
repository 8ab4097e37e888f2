/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package agent implements ServerAgent, the per-backend observation and
// mutation engine: connect, probe capabilities, read replication state
// into a cache, and execute the parameterized SQL command library a
// switchover/failover orchestration drives.
package agent

import (
	gosql "database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mariadbmon/clustermon/go/gtidlist"
	"github.com/mariadbmon/clustermon/go/monitorlog"
	"github.com/mariadbmon/clustermon/go/mysql"
)

// UnknownServerID mirrors mysql.UnknownServerID at the agent-state level.
const UnknownServerID int64 = -1

// ReplicationSettings mirrors mysql.ReplicationSettings; kept as its own
// type here so callers of this package never need to import go/mysql just
// to read a cached snapshot.
type ReplicationSettings = mysql.ReplicationSettings

// NodeData is the Tarjan SCC scratch space spec §3 places on ServerAgent
// ("node_data"). go/topology owns the algorithm; this struct is the
// per-node record it reads and writes, kept on the agent because it
// survives across the analyzer's repeated graph walks within one tick.
type NodeData struct {
	Index           int
	LowestIndex     int
	OnStack         bool
	CycleID         int64
	HasCycle        bool
	ReachState      ReachState
	Parents         []string
	Children        []string
	ExternalMasters map[string]mysql.InstanceKey
}

// ReachState is the reachability label go/topology assigns while walking
// the graph from the master outward (spec §4.3).
type ReachState int

const (
	ReachUnknown ReachState = iota
	Reached
	Unreached
)

// ServerAgent owns one backend connection plus its cached replication
// state, per spec §3/§4.2.
type ServerAgent struct {
	// Name is the symbolic name external callers and the JSON export use
	// to address this agent (spec SPEC_FULL §3 supplemental field).
	Name string
	Key  mysql.InstanceKey

	connConfig *mysql.ConnectionConfig
	db         *gosql.DB
	log        Logger

	arrayLock sync.Mutex

	serverID     int64
	readOnly     bool
	gtidDomainID int64

	gtidCurrentPos gtidlist.GtidList
	gtidBinlogPos  gtidlist.GtidList

	slaveStatus []*mysql.SlaveStatus

	replicationSettings mysql.ReplicationSettings
	capabilities        mysql.Capabilities

	enabledEvents map[string]bool

	// LowDiskSpace backs the "not low-on-disk" promotion/demotion gate
	// (SPEC_FULL §3 supplemental field). Left false unless a caller wires
	// a disk probe in; off by default per DESIGN.md's Open Question.
	LowDiskSpace bool

	// ExternalMasters starts empty and is not written by any package in
	// this module; go/topology records external masters in NodeData
	// instead, and the orchestrator's merge_slave_conns does not read it.
	ExternalMasters map[string]mysql.InstanceKey

	node NodeData

	statusBits     uint64
	prevStatusBits uint64

	topologyChanged bool

	failureLatched bool
	authError      bool
}

// Logger is the subset of monitorlog.Default's methods ServerAgent calls through.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{}) error
	Errorf(format string, args ...interface{}) error
}

// New returns a ServerAgent for one backend. The connection is opened
// lazily on the first monitor_tick, matching the teacher's InitDBConnections
// separation between construction and connecting.
func New(name string, connConfig *mysql.ConnectionConfig) *ServerAgent {
	return &ServerAgent{
		Name:            name,
		Key:             connConfig.Key,
		connConfig:      connConfig,
		log:             monitorlog.Default,
		serverID:        UnknownServerID,
		gtidDomainID:    UnknownServerID,
		enabledEvents:   map[string]bool{},
		ExternalMasters: map[string]mysql.InstanceKey{},
	}
}

// SetLogger overrides the logger this agent uses; default is monitorlog.Default.
func (a *ServerAgent) SetLogger(l Logger) {
	a.log = l
}

// ensureConnection opens a.db on first use.
func (a *ServerAgent) ensureConnection() error {
	if a.db != nil {
		return nil
	}
	db, _, err := a.connConfig.GetDB("")
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

// StatusBits reads the routing-plane status word with acquire semantics,
// avoiding a lock on the hot read path (spec §9).
func (a *ServerAgent) StatusBits() uint64 {
	return atomic.LoadUint64(&a.statusBits)
}

// setStatusBits publishes new status bits with release semantics and
// records the previous word so the analyzer can diff edge transitions.
func (a *ServerAgent) setStatusBits(bits uint64) {
	prev := atomic.LoadUint64(&a.statusBits)
	atomic.StoreUint64(&a.prevStatusBits, prev)
	atomic.StoreUint64(&a.statusBits, bits)
}

// PrevStatusBits reads the status word as of the previous publish.
func (a *ServerAgent) PrevStatusBits() uint64 {
	return atomic.LoadUint64(&a.prevStatusBits)
}

// SetStatusBits lets go/topology publish the role word this agent's
// cache was classified into; kept distinct from the private setter so
// external packages go through an explicit, named call.
func (a *ServerAgent) SetStatusBits(bits uint64) {
	a.setStatusBits(bits)
}

// ServerID returns the cached @@global.server_id, or UnknownServerID.
func (a *ServerAgent) ServerID() int64 {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.serverID
}

// ReadOnly returns the cached @@read_only.
func (a *ServerAgent) ReadOnly() bool {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.readOnly
}

// GtidDomainID returns the cached @@global.gtid_domain_id.
func (a *ServerAgent) GtidDomainID() int64 {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.gtidDomainID
}

// GtidCurrentPos returns a copy of the cached gtid_current_pos.
func (a *ServerAgent) GtidCurrentPos() gtidlist.GtidList {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.gtidCurrentPos.Clone()
}

// GtidBinlogPos returns a copy of the cached gtid_binlog_pos.
func (a *ServerAgent) GtidBinlogPos() gtidlist.GtidList {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.gtidBinlogPos.Clone()
}

// SlaveStatus returns a copy of the cached, ordered slave channel array.
func (a *ServerAgent) SlaveStatus() []*mysql.SlaveStatus {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	out := make([]*mysql.SlaveStatus, len(a.slaveStatus))
	copy(out, a.slaveStatus)
	return out
}

// ReplicationSettings returns the cached gtid_strict_mode/log_bin/log_slave_updates trio.
func (a *ServerAgent) ReplicationSettings() mysql.ReplicationSettings {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.replicationSettings
}

// Capabilities returns the cached capability probe result.
func (a *ServerAgent) Capabilities() mysql.Capabilities {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.capabilities
}

// TopologyChanged reports whether the most recent update_slave_status
// call changed any role-affecting attribute (spec §3).
func (a *ServerAgent) TopologyChanged() bool {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.topologyChanged
}

// NodeData returns a pointer to this agent's Tarjan scratch space, for
// go/topology's exclusive use during one analysis pass.
func (a *ServerAgent) NodeData() *NodeData {
	return &a.node
}

// IsMaster reports whether this agent's cached slave status holds no
// channel at all. Channel state (running or stopped) and whether the
// channel's master is a monitored node are not considered.
func (a *ServerAgent) IsMaster() bool {
	status := a.SlaveStatus()
	return len(status) == 0
}

// catchupPosition returns gtid_binlog_pos when log_bin and
// log_slave_updates are both on, else gtid_current_pos, matching
// catchup_to_master's preference order (spec §4.2).
func (a *ServerAgent) catchupPosition() gtidlist.GtidList {
	a.arrayLock.Lock()
	settings := a.replicationSettings
	current := a.gtidCurrentPos.Clone()
	binlog := a.gtidBinlogPos.Clone()
	a.arrayLock.Unlock()
	if settings.LogBin && settings.LogSlaveUpdates {
		return binlog
	}
	return current
}

// AuthError reports whether the most recent monitor_tick failed with an
// authorization error (ER_ACCESS_DENIED_ERROR and siblings), the signal
// go/topology's AssignRoles consults for the AUTH_ERROR bit.
func (a *ServerAgent) AuthError() bool {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	return a.authError
}

// EnabledEvents returns the cached set of schema-qualified event names
// this agent has ENABLE state for.
func (a *ServerAgent) EnabledEvents() map[string]bool {
	a.arrayLock.Lock()
	defer a.arrayLock.Unlock()
	out := make(map[string]bool, len(a.enabledEvents))
	for k, v := range a.enabledEvents {
		out[k] = v
	}
	return out
}

func sleepRateLimited(elapsed time.Duration) {
	if elapsed < time.Second {
		time.Sleep(time.Second - elapsed)
	}
}
