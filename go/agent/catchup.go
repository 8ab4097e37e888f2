/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"time"

	"github.com/mariadbmon/clustermon/go/gtidlist"
	"github.com/mariadbmon/clustermon/go/opctx"
)

// CatchupToMaster polls this agent's catchup position (gtid_binlog_pos
// when log_bin and log_slave_updates are both on, else gtid_current_pos)
// until it is no longer behind target, per spec §4.2. Poll sleep starts
// at 200ms and grows by 100ms each unsuccessful iteration, clamped to
// the remaining budget. At least one poll happens even if the budget is
// already zero.
func (a *ServerAgent) CatchupToMaster(ctx *opctx.OperationContext, target gtidlist.GtidList) error {
	deadline := time.Now().Add(ctx.Remaining())
	sleep := 200 * time.Millisecond

	for attempt := 1; ; attempt++ {
		if err := a.UpdateGtids(); err != nil {
			return err
		}
		pos := a.catchupPosition()
		if target.EventsAhead(pos, gtidlist.MissingDomainIgnore) == 0 {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%s: catchup_to_master: timed out, %d events behind", a.Name, target.EventsAhead(pos, gtidlist.MissingDomainIgnore))
		}

		wait := sleep
		if wait > remaining {
			wait = remaining
		}
		time.Sleep(wait)
		sleep += 100 * time.Millisecond
	}
}
