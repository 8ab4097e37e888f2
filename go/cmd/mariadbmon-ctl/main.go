/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openark/golib/log"

	"github.com/mariadbmon/clustermon/go/agent"
	"github.com/mariadbmon/clustermon/go/base"
	"github.com/mariadbmon/clustermon/go/diag"
	"github.com/mariadbmon/clustermon/go/mysql"
	"github.com/mariadbmon/clustermon/go/opctx"
	"github.com/mariadbmon/clustermon/go/orchestrator"
	"github.com/mariadbmon/clustermon/go/tick"
	"github.com/mariadbmon/clustermon/go/topology"
)

var AppVersion string

// backendList parses "-backends" flag value: comma-delimited
// name=host:port tokens, e.g. "d1=10.0.0.1:3306,d2=10.0.0.2:3306".
func backendList(value string) (map[string]mysql.InstanceKey, error) {
	out := map[string]mysql.InstanceKey{}
	if strings.TrimSpace(value) == "" {
		return out, nil
	}
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("mariadbmon-ctl: malformed -backends token %q, want name=host:port", token)
		}
		key, err := mysql.ParseInstanceKey(parts[1])
		if err != nil {
			return nil, err
		}
		out[parts[0]] = *key
	}
	return out, nil
}

func buildAgents(backends map[string]mysql.InstanceKey, user, password string, connectTimeout, readTimeout int) map[string]*agent.ServerAgent {
	agents := make(map[string]*agent.ServerAgent, len(backends))
	for name, key := range backends {
		cfg := mysql.NewConnectionConfig()
		cfg.Key = key
		cfg.User = user
		cfg.Password = password
		cfg.ConnectTimeoutSeconds = connectTimeout
		cfg.ReadTimeoutSeconds = readTimeout
		agents[name] = agent.New(name, cfg)
	}
	return agents
}

// confirm prompts on stdin before a destructive action, matching the
// teacher's non-interactive flag-driven default (--execute) rather than
// a terminal UI library: -yes skips the prompt entirely.
func confirm(yes bool, prompt string) bool {
	if yes {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

func exportSnapshot(agents map[string]*agent.ServerAgent) []diag.AgentSnapshot {
	snapshots := make([]diag.AgentSnapshot, 0, len(agents))
	for name, a := range agents {
		var masterGroup *int64
		if cycle := a.NodeData().CycleID; cycle != 0 {
			masterGroup = &cycle
		}
		var conns []diag.SlaveConnectionSnapshot
		for _, s := range a.SlaveStatus() {
			var seconds *int32
			if s.SecondsBehindMaster != mysql.UndefinedSecondsBehindMaster {
				v := s.SecondsBehindMaster
				seconds = &v
			}
			conns = append(conns, diag.SlaveConnectionSnapshot{
				Name:          s.Name,
				MasterHost:    s.MasterHost,
				MasterPort:    s.MasterPort,
				IOState:       s.IOState.String(),
				SQLRunning:    s.SQLRunning,
				GtidIOPos:     s.GtidIOPos,
				SecondsBehind: seconds,
			})
		}
		snapshots = append(snapshots, diag.NewAgentSnapshot(
			name, a.ServerID(), a.ReadOnly(),
			a.GtidCurrentPos().String(), a.GtidBinlogPos().String(),
			masterGroup, conns,
		))
	}
	return snapshots
}

func main() {
	backendsFlag := flag.String("backends", "", "comma-delimited name=host:port list of monitored backends")
	user := flag.String("user", "", "monitoring MySQL user")
	password := flag.String("password", "", "monitoring MySQL password")
	replicationUser := flag.String("replication-user", "", "replication user embedded in CHANGE MASTER statements")
	replicationPassword := flag.String("replication-password", "", "replication password embedded in CHANGE MASTER statements")
	replicationSSL := flag.Bool("replication-ssl", false, "require SSL on new replication channels")
	connectTimeout := flag.Int("connect-timeout-seconds", 5, "per-backend connect timeout")
	readTimeout := flag.Int("read-timeout-seconds", 30, "per-backend max_statement_time self-abort ceiling for writes")

	interval := flag.Duration("interval", 2*time.Second, "tick interval")
	once := flag.Bool("once", false, "run a single tick pass and exit, instead of looping")
	parallel := flag.Bool("parallel-tick", false, "refresh agents concurrently within one tick")
	assumeUniqueHostnames := flag.Bool("assume-unique-hostnames", true, "topology graph edges key on hostname:port identity")

	exportJSON := flag.Bool("export", false, "print the JSON diagnostic export and exit (implies -once)")

	switchoverFlag := flag.String("switchover", "", "demote=promote backend names; run one switchover and exit")
	failoverFlag := flag.String("failover", "", "demote=promote backend names; run one failover and exit (demote assumed unreachable)")
	budget := flag.Duration("budget", 30*time.Second, "shared deadline for a switchover/failover run")
	yes := flag.Bool("yes", false, "skip the confirmation prompt for -switchover/-failover")

	verbose := flag.Bool("verbose", false, "verbose logging")
	debug := flag.Bool("debug", false, "debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		v := AppVersion
		if v == "" {
			v = "unversioned"
		}
		fmt.Println(v)
		return
	}

	log.SetLevel(log.ERROR)
	if *verbose {
		log.SetLevel(log.INFO)
	}
	if *debug {
		log.SetLevel(log.DEBUG)
	}

	backends, err := backendList(*backendsFlag)
	if err != nil {
		log.Fatale(err)
	}
	if len(backends) == 0 {
		log.Fatalf("mariadbmon-ctl: -backends must name at least one backend")
	}
	agents := buildAgents(backends, *user, *password, *connectTimeout, *readTimeout)
	for name, a := range agents {
		if ok, err := a.HasReplicationPrivileges(); err != nil {
			log.Warningf("%s: could not check replication privileges: %v", name, err)
		} else if !ok {
			log.Warningf("%s: monitoring user is missing REPLICATION CLIENT/SLAVE/SUPER", name)
		}
	}

	driver := tick.New(agents, *interval, topology.Options{AssumeUniqueHostnames: *assumeUniqueHostnames})
	driver.Parallel = *parallel

	if *switchoverFlag != "" || *failoverFlag != "" {
		runOrchestration(agents, driver, *switchoverFlag, *failoverFlag, *budget, *replicationUser, *replicationPassword, *replicationSSL, *yes)
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	driver.Tick(ctx)
	if *exportJSON || *once {
		printExport(agents)
		return
	}

	driver.Run(ctx)
}

func runOrchestration(agents map[string]*agent.ServerAgent, driver *tick.Driver, switchoverFlag, failoverFlag string, budget time.Duration, replicationUser, replicationPassword string, replicationSSL, yes bool) {
	ctx := context.Background()
	driver.Tick(ctx)

	spec := switchoverFlag
	isFailover := false
	if failoverFlag != "" {
		spec = failoverFlag
		isFailover = true
	}
	demoteName, promoteName, err := parsePair(spec)
	if err != nil {
		log.Fatale(err)
	}
	demote, ok := agents[demoteName]
	if !ok {
		log.Fatalf("mariadbmon-ctl: unknown backend %q", demoteName)
	}
	promote, ok := agents[promoteName]
	if !ok {
		log.Fatalf("mariadbmon-ctl: unknown backend %q", promoteName)
	}

	verb := "switchover"
	if isFailover {
		verb = "failover"
	}
	if !confirm(yes, fmt.Sprintf("run %s: demote %s, promote %s?", verb, demoteName, promoteName)) {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(1)
	}

	driver.BeginOrchestration()
	defer driver.EndOrchestration()

	opCtx := opctx.New(budget, replicationUser, replicationPassword, replicationSSL)
	var success bool
	if isFailover {
		success = orchestrator.Failover(opCtx, agents, demote, promote, orchestrator.SwitchoverOptions{})
	} else {
		success = orchestrator.Switchover(opCtx, agents, demote, promote, orchestrator.SwitchoverOptions{})
	}

	errJSON, _ := json.MarshalIndent(opCtx.ErrorSink, "", "  ")
	fmt.Println(string(errJSON))
	fmt.Fprintf(os.Stderr, "%s: budget remaining %s\n", verb, base.PrettifyDurationOutput(opCtx.Remaining()))
	if !success {
		os.Exit(1)
	}
}

func parsePair(spec string) (demote, promote string, err error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("mariadbmon-ctl: malformed pair %q, want demote=promote", spec)
	}
	return parts[0], parts[1], nil
}

func printExport(agents map[string]*agent.ServerAgent) {
	payload := struct {
		Agents          []diag.AgentSnapshot `json:"agents"`
		ExternalMasters *mysql.InstanceKeyMap `json:"external_masters"`
	}{
		Agents:          exportSnapshot(agents),
		ExternalMasters: topology.ExternalMasters(agents),
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatale(err)
	}
	fmt.Println(string(out))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()
	return ctx, cancel
}
