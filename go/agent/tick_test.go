package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mariadbmon/clustermon/go/mysql"
)

func TestMergeSlaveStatusFirstSightSetsSeenConnected(t *testing.T) {
	now := time.Now()
	new := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, IOState: mysql.IOStateYes, SQLRunning: true},
	}
	merged := mergeSlaveStatus(nil, new, now)
	assert.True(t, merged[0].SeenConnected)
	assert.Equal(t, now, merged[0].LastDataTime)
}

func TestMergeSlaveStatusCarriesLastDataTimeWhenUnchanged(t *testing.T) {
	earlier := time.Now().Add(-time.Minute)
	old := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, IOState: mysql.IOStateYes, ReceivedHeartbeats: 5, GtidIOPos: "0-101-9", LastDataTime: earlier, SeenConnected: true},
	}
	new := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, IOState: mysql.IOStateYes, ReceivedHeartbeats: 5, GtidIOPos: "0-101-9"},
	}
	merged := mergeSlaveStatus(old, new, time.Now())
	assert.Equal(t, earlier, merged[0].LastDataTime)
	assert.True(t, merged[0].SeenConnected)
}

func TestMergeSlaveStatusAdvancesLastDataTimeOnProgress(t *testing.T) {
	earlier := time.Now().Add(-time.Minute)
	old := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, ReceivedHeartbeats: 5, GtidIOPos: "0-101-9", LastDataTime: earlier},
	}
	now := time.Now()
	new := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, ReceivedHeartbeats: 6, GtidIOPos: "0-101-10"},
	}
	merged := mergeSlaveStatus(old, new, now)
	assert.Equal(t, now, merged[0].LastDataTime)
}

func TestMergeSlaveStatusConnectingPreservesSeenConnectedOnlyIfServerIDStable(t *testing.T) {
	old := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, IOState: mysql.IOStateYes, SeenConnected: true},
	}
	newSameID := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 101, IOState: mysql.IOStateConnecting},
	}
	merged := mergeSlaveStatus(old, newSameID, time.Now())
	assert.True(t, merged[0].SeenConnected)

	newDifferentID := []*mysql.SlaveStatus{
		{MasterHost: "db0", MasterPort: 3306, MasterServerID: 202, IOState: mysql.IOStateConnecting},
	}
	merged2 := mergeSlaveStatus(old, newDifferentID, time.Now())
	assert.False(t, merged2[0].SeenConnected)
}

func TestFindPreviousRowFallsBackToLinearScan(t *testing.T) {
	old := []*mysql.SlaveStatus{
		{MasterHost: "db1", MasterPort: 3306},
		{MasterHost: "db0", MasterPort: 3306, SeenConnected: true},
	}
	row := &mysql.SlaveStatus{MasterHost: "db0", MasterPort: 3306}
	prev := findPreviousRow(old, []*mysql.SlaveStatus{row}, 0, row)
	assert.NotNil(t, prev)
	assert.True(t, prev.SeenConnected)
}
