package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
)

func TestFailoverPreflightRejectsEmptyBinlogPos(t *testing.T) {
	demote := agent.NewWithSnapshot("D", key("d-host"), 101, nil)
	promote := agent.NewWithSnapshot("P", key("p-host"), 202, []*mysql.SlaveStatus{
		channelTo("ch1", "d-host", 101),
	})

	agents := map[string]*agent.ServerAgent{"D": demote, "P": promote}
	ctx := opctx.New(30*time.Second, "repl", "secret", false)

	ok := Failover(ctx, agents, demote, promote, SwitchoverOptions{})
	assert.False(t, ok)
	assert.False(t, ctx.ErrorSink.Empty())
}
