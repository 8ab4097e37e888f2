/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

// Package tick drives the periodic monitor_tick/TopologyAnalyzer pass
// spec §2 calls the "Tick driver": on a fixed interval, refresh every
// agent's cached state and re-run the topology analysis that publishes
// role bits. Per spec §5, the per-agent refresh may run in parallel
// (each agent owns its own connection and cache) but the tick as a whole
// is single-threaded: the monitor's own tick will not re-enter while an
// orchestration is in flight.
package tick

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/monitorlog"
	"github.com/mariadbmon/clustermon/go/topology"
)

// Driver owns the fixed agent set and runs the tick loop against it.
type Driver struct {
	Agents   map[string]*agent.ServerAgent
	Interval time.Duration
	Options  topology.Options

	// Parallel enables concurrent per-agent MonitorTick calls via
	// errgroup, matching spec §5's "optional parallel per-agent update
	// is safe". Off by default: sequential ticks are simpler to reason
	// about and the teacher's own migrator loop is single-threaded.
	Parallel bool

	log agent.Logger

	// orchestrating blocks a tick from starting while an orchestration
	// holds it, per spec §5's "the monitor's own tick will not re-enter
	// while an orchestration is in flight".
	mu            sync.Mutex
	orchestrating bool
}

// New returns a Driver over agents, ticking every interval.
func New(agents map[string]*agent.ServerAgent, interval time.Duration, opts topology.Options) *Driver {
	return &Driver{
		Agents:   agents,
		Interval: interval,
		Options:  opts,
		log:      monitorlog.Default,
	}
}

// SetLogger overrides the logger this driver uses; default is monitorlog.Default.
func (d *Driver) SetLogger(l agent.Logger) {
	d.log = l
}

// BeginOrchestration marks the driver busy so the next Tick call is
// skipped rather than racing an in-flight switchover/failover against
// the agents it is mutating. Callers must pair it with EndOrchestration.
func (d *Driver) BeginOrchestration() {
	d.mu.Lock()
	d.orchestrating = true
	d.mu.Unlock()
}

// EndOrchestration releases the tick loop held by BeginOrchestration.
func (d *Driver) EndOrchestration() {
	d.mu.Lock()
	d.orchestrating = false
	d.mu.Unlock()
}

// Tick runs one pass: refresh every agent's cached state, then re-run
// the topology analysis. It is a no-op, returning false, while an
// orchestration is in flight.
func (d *Driver) Tick(ctx context.Context) bool {
	d.mu.Lock()
	busy := d.orchestrating
	d.mu.Unlock()
	if busy {
		return false
	}

	if d.Parallel {
		d.tickParallel(ctx)
	} else {
		d.tickSequential()
	}

	authErrors := make(map[string]bool, len(d.Agents))
	for name, a := range d.Agents {
		if a.AuthError() {
			authErrors[name] = true
		}
	}
	topology.Analyze(d.Agents, d.Options, authErrors)
	return true
}

func (d *Driver) tickSequential() {
	for name, a := range d.Agents {
		if err := a.MonitorTick(); err != nil {
			d.log.Warningf("tick: %s: %v", name, err)
		}
	}
}

func (d *Driver) tickParallel(ctx context.Context) {
	g, _ := errgroup.WithContext(ctx)
	for name, a := range d.Agents {
		name, a := name, a
		g.Go(func() error {
			if err := a.MonitorTick(); err != nil {
				d.log.Warningf("tick: %s: %v", name, err)
			}
			return nil
		})
	}
	// Every goroutine above always returns nil, so g.Wait() only waits
	// for them and always returns nil.
	_ = g.Wait()
}

// Run blocks, calling Tick every Interval until ctx is done.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}
