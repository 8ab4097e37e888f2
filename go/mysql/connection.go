/*
   Copyright 2016 GitHub Inc.
	 See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package mysql

import (
	"fmt"

	gosql "database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/openark/golib/sqlutils"
)

// ConnectionConfig is the configuration required to connect to one backend
// and, if the backend requires it, to its replication credentials.
type ConnectionConfig struct {
	Key      InstanceKey
	User     string
	Password string

	// ReplicationUser/ReplicationPassword/ReplicationSSL are carried over by
	// Duplicate but not read by go/agent: its CHANGE MASTER statements take
	// the replication credentials from opctx.OperationContext.
	ReplicationUser     string
	ReplicationPassword string
	ReplicationSSL      bool

	// ConnectTimeoutSeconds bounds the initial TCP/handshake phase; it is
	// distinct from the read timeout in ReadTimeoutSeconds.
	ConnectTimeoutSeconds int

	// ReadTimeoutSeconds is the connector-side read timeout this backend's
	// writes self-abort against (max_statement_time), independent of
	// whatever per-step budget OperationContext happens to be tracking.
	ReadTimeoutSeconds int
}

// NewConnectionConfig returns a zero-value ConnectionConfig, matching the
// convention the rest of the package uses for constructors.
func NewConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{ConnectTimeoutSeconds: 5, ReadTimeoutSeconds: 30}
}

// Duplicate returns a copy of this config pointed at a different key,
// carrying over all credentials.
func (c *ConnectionConfig) Duplicate(key InstanceKey) *ConnectionConfig {
	dup := *c
	dup.Key = key
	return &dup
}

// GetDBUri renders a go-sql-driver/mysql DSN for this connection.
func (c *ConnectionConfig) GetDBUri(databaseName string) string {
	hostname := c.Key.Hostname
	interpolateParams := true
	timeout := c.ConnectTimeoutSeconds
	if timeout <= 0 {
		timeout = 5
	}
	readTimeout := c.ReadTimeoutSeconds
	if readTimeout < 0 {
		readTimeout = 0
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=%ds&readTimeout=%ds&interpolateParams=%t&charset=utf8mb4,utf8,latin1",
		c.User, c.Password, hostname, c.Key.Port, databaseName, timeout, readTimeout, interpolateParams)
}

// GetDB opens (or returns the pooled) *sql.DB for this connection, through
// the same sqlutils.GetDB helper the teacher's mysql/utils.go calls -- it
// keys its pool by URI so repeated calls for the same backend share a
// connection.
func (c *ConnectionConfig) GetDB(databaseName string) (*gosql.DB, bool, error) {
	return sqlutils.GetDB(c.GetDBUri(databaseName))
}
