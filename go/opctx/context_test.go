package opctx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCredentialsAndBudget(t *testing.T) {
	ctx := New(30*time.Second, "repl", "secret", true)
	assert.Equal(t, 30*time.Second, ctx.Remaining())
	assert.Equal(t, "repl", ctx.ReplicationUser)
	assert.True(t, ctx.ReplicationSSL)
	assert.False(t, ctx.Exceeded())
	assert.True(t, ctx.ErrorSink.Empty())
}

func TestSpendFloorsAtZero(t *testing.T) {
	ctx := New(2*time.Second, "u", "p", false)
	ctx.Spend(5 * time.Second)
	assert.Equal(t, time.Duration(0), ctx.Remaining())
	assert.True(t, ctx.Exceeded())
}

func TestStepBudgetCapsToLesser(t *testing.T) {
	ctx := New(10*time.Second, "u", "p", false)
	assert.Equal(t, 3*time.Second, ctx.StepBudget(3*time.Second))

	ctx.Spend(9 * time.Second)
	assert.Equal(t, time.Second, ctx.StepBudget(3*time.Second))
}

func TestRunStepRecordsErrorAndSpendsBudget(t *testing.T) {
	ctx := New(time.Second, "u", "p", false)
	err := ctx.RunStep("demote", func() error {
		time.Sleep(5 * time.Millisecond)
		return errors.New("read_only failed")
	})
	require.Error(t, err)
	assert.False(t, ctx.ErrorSink.Empty())
	assert.Less(t, ctx.Remaining(), time.Second)
}

func TestRunStepNilErrorLeavesSinkEmpty(t *testing.T) {
	ctx := New(time.Second, "u", "p", false)
	require.NoError(t, ctx.RunStep("promote", func() error { return nil }))
	assert.True(t, ctx.ErrorSink.Empty())
}
