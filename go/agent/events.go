/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

import (
	"fmt"
	"time"

	"github.com/openark/golib/sqlutils"

	"github.com/mariadbmon/clustermon/go/opctx"
)

// eventRow is one information_schema.EVENTS row this package cares about.
type eventRow struct {
	Schema  string
	Name    string
	Definer string
	Status  string
}

func (a *ServerAgent) listEvents() ([]eventRow, error) {
	var rows []eventRow
	err := sqlutils.QueryRowsMap(a.db, "select EVENT_SCHEMA, EVENT_NAME, DEFINER, STATUS from information_schema.EVENTS", func(m sqlutils.RowMap) error {
		rows = append(rows, eventRow{
			Schema:  m.GetString("EVENT_SCHEMA"),
			Name:    m.GetString("EVENT_NAME"),
			Definer: m.GetString("DEFINER"),
			Status:  m.GetString("STATUS"),
		})
		return nil
	})
	return rows, err
}

// quoteDefiner renders "user@'host'" from a DEFINER column value of the
// form "user@host", per spec §4.2: "host always single-quoted".
func quoteDefiner(definer string) string {
	for i := len(definer) - 1; i >= 0; i-- {
		if definer[i] == '@' {
			return fmt.Sprintf("%s@'%s'", definer[:i], definer[i+1:])
		}
	}
	return fmt.Sprintf("%s@'%%'", definer)
}

// EnableEvents re-enables the named events (schema-qualified), matching
// the set recorded in a ServerOperation's events_to_enable.
func (a *ServerAgent) EnableEvents(ctx *opctx.OperationContext, names map[string]bool) error {
	if err := a.ensureConnection(); err != nil {
		return err
	}
	rows, err := a.listEvents()
	if err != nil {
		return err
	}
	enabled := map[string]bool{}
	for _, row := range rows {
		qualified := row.Schema + "." + row.Name
		if !names[qualified] {
			continue
		}
		stmt := fmt.Sprintf("ALTER DEFINER = %s EVENT %s ENABLE", quoteDefiner(row.Definer), qualified)
		if err := a.ExecuteCmdTimeLimit(stmt, ctx.StepBudget(5*time.Second)); err != nil {
			return err
		}
		enabled[qualified] = true
	}
	a.arrayLock.Lock()
	for name := range enabled {
		a.enabledEvents[name] = true
	}
	a.arrayLock.Unlock()
	return nil
}

// DisableEvents disables every ENABLED event on this backend with
// "... DISABLE ON SLAVE", optionally wrapped in
// SET @@session.sql_log_bin=0 so the disablement does not generate
// binlog events during a rejoin (spec §4.2). The restore to sql_log_bin
// is attempted on exit, ignoring its own failure.
func (a *ServerAgent) DisableEvents(ctx *opctx.OperationContext, suppressBinlog bool) (map[string]bool, error) {
	if err := a.ensureConnection(); err != nil {
		return nil, err
	}
	if suppressBinlog {
		_ = a.ExecuteCmdTimeLimit("SET @@session.sql_log_bin=0", ctx.StepBudget(2*time.Second))
		defer func() {
			_ = a.ExecuteCmdTimeLimit("SET @@session.sql_log_bin=1", ctx.StepBudget(2*time.Second))
		}()
	}

	rows, err := a.listEvents()
	if err != nil {
		return nil, err
	}
	disabled := map[string]bool{}
	for _, row := range rows {
		if row.Status != "ENABLED" {
			continue
		}
		qualified := row.Schema + "." + row.Name
		stmt := fmt.Sprintf("ALTER DEFINER = %s EVENT %s DISABLE ON SLAVE", quoteDefiner(row.Definer), qualified)
		if err := a.ExecuteCmdTimeLimit(stmt, ctx.StepBudget(5*time.Second)); err != nil {
			return disabled, err
		}
		disabled[qualified] = true
	}
	a.arrayLock.Lock()
	for name := range disabled {
		delete(a.enabledEvents, name)
	}
	a.arrayLock.Unlock()
	return disabled, nil
}
