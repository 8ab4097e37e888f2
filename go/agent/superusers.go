/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"time"

	"github.com/openark/golib/sqlutils"

	"github.com/mariadbmon/clustermon/go/base"
	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
)

// KickOutSuperUsers enumerates live non-replication connections whose
// user has SUPER, excluding this agent's own connection, and issues
// KILL SOFT CONNECTION for each, per spec §4.2. Access-denied failures
// (the monitor user lacks privilege to enumerate) are downgraded to a
// warning rather than an error; other query failures are errors.
func (a *ServerAgent) KickOutSuperUsers(ctx *opctx.OperationContext) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}

	var ownID int64
	if err := a.db.QueryRow("select connection_id()").Scan(&ownID); err != nil {
		return err
	}

	query := `
select p.ID as id
from information_schema.PROCESSLIST p
join mysql.user u on u.User = p.User
where u.Super_priv = 'Y'
  and p.Command != 'Binlog Dump'
  and p.Command != 'Binlog Dump GTID'`

	var ids []int64
	err := sqlutils.QueryRowsMap(a.db, query, func(m sqlutils.RowMap) error {
		ids = append(ids, m.GetInt64("id"))
		return nil
	})
	if err != nil {
		if mysql.IsAccessDeniedError(err) {
			a.log.Warningf("%s: kick_out_super_users: access denied enumerating connections: %v", a.Name, err)
			return nil
		}
		return err
	}

	budget := ctx.StepBudget(5 * time.Second)
	for _, id := range ids {
		if id == ownID {
			continue
		}
		stmt := fmt.Sprintf("KILL SOFT CONNECTION %d", id)
		if err := a.ExecuteCmdTimeLimit(stmt, budget); err != nil {
			if mysql.IsAccessDeniedError(err) {
				a.log.Warningf("%s: kick_out_super_users: access denied killing connection %d: %v", a.Name, id, err)
				continue
			}
			return err
		}
	}
	return nil
}

// HasReplicationPrivileges inspects SHOW GRANTS FOR CURRENT_USER and
// reports whether this connection holds every privilege a promotion or
// demotion needs (REPLICATION CLIENT, REPLICATION SLAVE, SUPER) -- a
// preflight a caller can run once at startup rather than discovering a
// missing grant mid-orchestration.
func (a *ServerAgent) HasReplicationPrivileges() (bool, error) {
	if err := a.ensureConnection(); err != nil {
		return false, err
	}
	rows, err := a.db.Query("show grants for current_user")
	if err != nil {
		if mysql.IsAccessDeniedError(err) {
			return false, nil
		}
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var grant string
		if err := rows.Scan(&grant); err != nil {
			return false, err
		}
		if base.StringContainsAll(grant, "REPLICATION CLIENT", "REPLICATION SLAVE", "SUPER") {
			return true, nil
		}
		if base.StringContainsAll(grant, "ALL PRIVILEGES") {
			return true, nil
		}
	}
	return false, rows.Err()
}
