/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
)

// RedirectExistingSlaveConn points an existing channel at a new master,
// per spec §4.2: STOP SLAVE, CHANGE MASTER, START SLAVE, each bounded by
// the shared deadline. Failure produces a single error tagged with the
// channel's name; the password is never included.
func (a *ServerAgent) RedirectExistingSlaveConn(ctx *opctx.OperationContext, channelName string, newMaster mysql.InstanceKey) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}

	if err := a.stopSlave(channelName, ctx); err != nil {
		return fmt.Errorf("redirect channel %q: %w", channelName, err)
	}

	changeMaster := buildChangeMaster(channelName, newMaster, ctx.ReplicationUser, ctx.ReplicationPassword, ctx.ReplicationSSL)
	a.log.Infof("%s: %s", a.Name, redactedChangeMaster(channelName, newMaster))
	if err := a.ExecuteCmdTimeLimit(changeMaster, ctx.StepBudget(5*time.Second)); err != nil {
		return fmt.Errorf("redirect channel %q: %w", channelName, err)
	}

	if err := a.startSlave(channelName, ctx); err != nil {
		return fmt.Errorf("redirect channel %q: %w", channelName, err)
	}
	return nil
}

// RemoveSlaveConn stops and fully resets a single channel, used by
// failover's step 1 to drop P's now-dead channel to D without touching
// any of P's other channels.
func (a *ServerAgent) RemoveSlaveConn(ctx *opctx.OperationContext, channelName string) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}
	if err := a.stopSlave(channelName, ctx); err != nil {
		return err
	}
	resetQuery := channeled("RESET SLAVE", channelName) + " ALL"
	return a.ExecuteCmdTimeLimit(resetQuery, ctx.StepBudget(5*time.Second))
}

// ResetAllSlaveConns runs STOP SLAVE / RESET SLAVE ALL for every cached
// channel, per spec §4.2. The first failure aborts the loop; partial
// effects are left in place (spec §7).
func (a *ServerAgent) ResetAllSlaveConns(ctx *opctx.OperationContext) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}
	for _, s := range a.SlaveStatus() {
		if err := a.stopSlave(s.Name, ctx); err != nil {
			return err
		}
		resetQuery := channeled("RESET SLAVE", s.Name) + " ALL"
		if err := a.ExecuteCmdTimeLimit(resetQuery, ctx.StepBudget(5*time.Second)); err != nil {
			return err
		}
	}
	return nil
}

func (a *ServerAgent) stopSlave(channelName string, ctx *opctx.OperationContext) error {
	a.log.Infof("%s: stopping %s channel %q", a.Name, a.replicaTerm(), channelName)
	return a.ExecuteCmdTimeLimit(channeled("STOP SLAVE", channelName), ctx.StepBudget(5*time.Second))
}

func (a *ServerAgent) startSlave(channelName string, ctx *opctx.OperationContext) error {
	a.log.Infof("%s: starting %s channel %q", a.Name, a.replicaTerm(), channelName)
	return a.ExecuteCmdTimeLimit(channeled("START SLAVE", channelName), ctx.StepBudget(5*time.Second))
}

// replicaTerm renders "slave" or its MySQL 8.4+ "replica" spelling
// depending on this backend's probed version, for log output only --
// the SQL surface itself stays on the SLAVE syntax MariaDB requires
// regardless of vocabulary (spec §6).
func (a *ServerAgent) replicaTerm() string {
	versionString := a.Capabilities().VersionString
	if strings.Contains(strings.ToLower(versionString), "mariadb") {
		return "slave"
	}
	return mysql.ReplicaTermFor(versionString, "slave")
}

// channeled appends a quoted connection name to a STOP/START/RESET SLAVE
// statement when name is non-empty, matching the per-channel syntax
// "STOP SLAVE '<name>'" spec §4.2 specifies.
func channeled(stmt, name string) string {
	if name == "" {
		return stmt
	}
	return fmt.Sprintf("%s '%s'", stmt, name)
}

// buildChangeMaster renders the CHANGE MASTER statement of spec §4.4.1.
// The password is embedded in the returned statement but is never logged
// by any call site in this package.
func buildChangeMaster(channelName string, target mysql.InstanceKey, user, password string, ssl bool) string {
	stmt := channeled("CHANGE MASTER", channelName)
	sslClause := ""
	if ssl {
		sslClause = "MASTER_SSL=1, "
	}
	return fmt.Sprintf(
		"%s TO MASTER_HOST='%s', MASTER_PORT=%d, MASTER_USE_GTID=current_pos, %sMASTER_USER='%s', MASTER_PASSWORD='%s'",
		stmt, target.Hostname, target.Port, sslClause, user, password,
	)
}

// redactedChangeMaster is what a log call site should render instead of
// the raw statement built by buildChangeMaster, eliding the password per
// spec §9.
func redactedChangeMaster(channelName string, target mysql.InstanceKey) string {
	stmt := channeled("CHANGE MASTER", channelName)
	return fmt.Sprintf("%s TO MASTER_HOST='%s', MASTER_PORT=%d, MASTER_USE_GTID=current_pos, MASTER_USER=***, MASTER_PASSWORD=***",
		stmt, target.Hostname, target.Port)
}
