//go:build integration

package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mariadbmon/clustermon/go/mysql"
)

func startMariaDB(t *testing.T) *mysql.ConnectionConfig {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mariadb:11.4",
		testcontainers.WithWaitStrategy(wait.ForLog("ready for connections").WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)

	cfg := mysql.NewConnectionConfig()
	cfg.Key = mysql.InstanceKey{Hostname: host, Port: port.Int()}
	cfg.User = "root"
	cfg.Password = "test"
	return cfg
}

func TestMonitorTickAgainstLiveMariaDB(t *testing.T) {
	cfg := startMariaDB(t)
	a := New("node1", cfg)

	require.Eventually(t, func() bool {
		return a.MonitorTick() == nil
	}, 30*time.Second, 500*time.Millisecond)

	require.True(t, a.Capabilities().Probed)
	require.True(t, a.Capabilities().GTID)
	require.NotEqual(t, UnknownServerID, a.ServerID())
}
