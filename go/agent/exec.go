/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"time"

	"github.com/openark/golib/sqlutils"

	"github.com/mariadbmon/clustermon/go/mysql"
)

// ExecuteCmdTimeLimit is spec §4.2's execute_cmd_time_limit: retry a
// write statement, rate-limited to at most one attempt per second, for
// as long as budget remains and the failure looks retryable. It always
// attempts at least once even if budget is already exhausted. The
// backend is asked to self-abort via max_statement_time, set from the
// connector's configured read timeout rather than budget, so a stuck
// statement aborts on the same schedule regardless of which step called it.
func (a *ServerAgent) ExecuteCmdTimeLimit(sql string, budget time.Duration, args ...interface{}) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}

	caps := a.Capabilities()
	statement := sql
	if caps.MaxStatementTime {
		timeoutSeconds := a.connConfig.ReadTimeoutSeconds
		if timeoutSeconds <= 0 {
			timeoutSeconds = 30
		}
		statement = fmt.Sprintf("SET STATEMENT max_statement_time=%d FOR %s", timeoutSeconds, sql)
	}

	deadline := time.Now().Add(budget)
	for attempt := 1; ; attempt++ {
		start := time.Now()
		_, err := sqlutils.ExecNoPrepare(a.db, statement, args...)
		elapsed := time.Since(start)
		if err == nil {
			return nil
		}

		remaining := time.Until(deadline)
		retryable := mysql.IsRetryable(err)
		if !retryable || remaining <= 0 {
			return err
		}

		sleepRateLimited(elapsed)
	}
}
