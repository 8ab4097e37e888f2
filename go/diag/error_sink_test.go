package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorSinkEmpty(t *testing.T) {
	sink := NewErrorSink()
	assert.True(t, sink.Empty())
	assert.NotEmpty(t, sink.OperationID())
}

func TestAppendNilIsNoOp(t *testing.T) {
	sink := NewErrorSink()
	require.NoError(t, sink.Append("demote", nil))
	assert.True(t, sink.Empty())
}

func TestAppendRecordsStepAndMessage(t *testing.T) {
	sink := NewErrorSink()
	err := sink.Append("promote", errors.New("boom"))
	require.Error(t, err)
	assert.False(t, sink.Empty())

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "promote", entries[0].Step)
	assert.Equal(t, "boom", entries[0].Message)
}

func TestAppendAllSkipsNils(t *testing.T) {
	sink := NewErrorSink()
	sink.AppendAll("redirect", []error{nil, errors.New("a"), nil, errors.New("b")})
	assert.Len(t, sink.Entries(), 2)
}

func TestMarshalJSONIncludesOperationID(t *testing.T) {
	sink := NewErrorSink()
	sink.Append("demote", errors.New("timeout"))

	raw, err := sink.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), sink.OperationID())
	assert.Contains(t, string(raw), "timeout")
}
