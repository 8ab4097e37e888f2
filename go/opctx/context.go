/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package opctx holds OperationContext, the value an orchestration script
// threads by reference through every agent call: the shared deadline, the
// JSON error sink, and the replication credentials new CHANGE MASTER
// statements embed. It sits below go/agent and go/orchestrator so neither
// needs to import the other just to share this type.
package opctx

import (
	"time"

	"github.com/mariadbmon/clustermon/go/diag"
)

// OperationContext is spec §3's "passed by reference through an
// orchestration" value: deadline_remaining, error_sink, replication_user,
// replication_password, replication_ssl.
type OperationContext struct {
	// DeadlineRemaining is decremented as steps complete (spec §3). It is
	// not a context.Context deadline: individual steps consult it
	// explicitly before deciding how much budget to hand a retry loop,
	// per spec §4.2's execute_cmd_time_limit.
	DeadlineRemaining time.Duration

	// ErrorSink accumulates one entry per failed step; never nil once
	// New returns.
	ErrorSink *diag.ErrorSink

	// ReplicationUser/ReplicationPassword are embedded into CHANGE
	// MASTER statements issued during promote/demote/redirect. Never
	// logged verbatim -- spec §9's "debug-logging of CHANGE MASTER must
	// elide the password field".
	ReplicationUser     string
	ReplicationPassword string
	ReplicationSSL      bool
}

// New returns an OperationContext with the given total budget and a fresh
// error sink.
func New(budget time.Duration, replicationUser, replicationPassword string, replicationSSL bool) *OperationContext {
	return &OperationContext{
		DeadlineRemaining:   budget,
		ErrorSink:           diag.NewErrorSink(),
		ReplicationUser:     replicationUser,
		ReplicationPassword: replicationPassword,
		ReplicationSSL:      replicationSSL,
	}
}

// Remaining reports the budget left for the next step.
func (c *OperationContext) Remaining() time.Duration {
	return c.DeadlineRemaining
}

// Exceeded reports whether the deadline has already been consumed.
func (c *OperationContext) Exceeded() bool {
	return c.DeadlineRemaining <= 0
}

// Spend decrements the remaining budget by elapsed, floored at zero so a
// slow step cannot push the deadline negative and confuse a later
// Remaining() comparison.
func (c *OperationContext) Spend(elapsed time.Duration) {
	c.DeadlineRemaining -= elapsed
	if c.DeadlineRemaining < 0 {
		c.DeadlineRemaining = 0
	}
}

// StepBudget returns a budget for one step: the lesser of the full
// remaining deadline and cap, so no single step that uses it (e.g. one
// STOP SLAVE) can alone consume the whole shared deadline when a more
// conservative per-step ceiling applies. catchup_to_master does not use
// it; it polls against Remaining().
func (c *OperationContext) StepBudget(cap time.Duration) time.Duration {
	if c.DeadlineRemaining < cap {
		return c.DeadlineRemaining
	}
	return cap
}

// RunStep times fn, spends its wall-clock duration against the shared
// deadline, and records any error under step's name in the sink. It is
// the seam every orchestration script step calls through, matching the
// AddError(step, err) idiom the source lineage's recovery driver uses.
func (c *OperationContext) RunStep(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.Spend(time.Since(start))
	return c.ErrorSink.Append(step, err)
}
