/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package diag holds the two reporting surfaces an orchestration leaves
// behind: the JSON error accumulator threaded through OperationContext
// (spec §3/§9 "replace exceptions with... a JSON accumulator for
// orchestration errors") and the point-in-time JSON export of a cluster's
// agents (spec §6).
package diag

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// ErrorEntry is one step's recorded failure.
type ErrorEntry struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ErrorSink accumulates ErrorEntry values across an orchestration run. It
// never short-circuits on the first error -- spec §9's "surviving partial
// state is reported" means every step that fails contributes its own
// entry, not just the first.
type ErrorSink struct {
	mu        sync.Mutex
	operation string
	entries   []ErrorEntry
}

// NewErrorSink returns an empty sink tagged with a fresh operation id, so
// overlapping switchover/failover attempts logged to the same stream stay
// distinguishable.
func NewErrorSink() *ErrorSink {
	return &ErrorSink{operation: uuid.NewString()}
}

// OperationID is the uuid this sink was tagged with at construction.
func (s *ErrorSink) OperationID() string {
	return s.operation
}

// Append records step's error, if any. A nil err is a no-op, matching the
// teacher-lineage AddError(err) return-err idiom so call sites can write
// `return sink.Append("demote", err)`.
func (s *ErrorSink) Append(step string, err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	s.entries = append(s.entries, ErrorEntry{Step: step, Message: err.Error()})
	s.mu.Unlock()
	return err
}

// AppendAll records every non-nil error in errs under the same step label.
func (s *ErrorSink) AppendAll(step string, errs []error) {
	for _, err := range errs {
		s.Append(step, err)
	}
}

// Empty reports whether no step has failed yet.
func (s *ErrorSink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries) == 0
}

// Entries returns a snapshot copy of the recorded errors, in the order
// they were appended.
func (s *ErrorSink) Entries() []ErrorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ErrorEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarshalJSON renders the sink as a JSON object holding the operation id
// ("operation_id") and an "errors" array of {step, message} objects,
// matching spec §3's "json accumulator".
func (s *ErrorSink) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(struct {
		OperationID string       `json:"operation_id"`
		Errors      []ErrorEntry `json:"errors"`
	}{OperationID: s.operation, Errors: s.entries})
}
