/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package topology

import (
	"sort"

	"github.com/mariadbmon/clustermon/go/agent"
)

// CycleNone is the cycle id a node not part of any multi-master ring
// carries, per spec §4.3 step 2.
const CycleNone int64 = 0

// tarjanFrame is one level of the explicit call stack that replaces the
// recursive strongconnect() of the reference algorithm this is grounded
// on: it remembers which node is being visited and how far its
// adjacency list has been walked, so the DFS can be resumed without a
// real call stack.
type tarjanFrame struct {
	node     string
	children []string
	childIdx int
}

// StronglyConnectedComponents implements spec §4.3 step 2 with an
// iterative Tarjan walk (an explicit-stack rewrite of the classic
// recursive strongconnect, needed because the replication graph's depth
// is caller-controlled and this package must not risk a goroutine stack
// overflow on a pathological ring). Every component of size > 1 receives
// a distinct, stable cycle id; singleton components keep CycleNone.
func StronglyConnectedComponents(agents map[string]*agent.ServerAgent) {
	for _, a := range agents {
		node := a.NodeData()
		node.Index = -1
		node.LowestIndex = -1
		node.OnStack = false
		node.CycleID = CycleNone
		node.HasCycle = false
	}

	names := sortedNames(agents)

	indexCounter := 0
	var onStack []string
	nextCycleID := int64(1)

	for _, start := range names {
		if agents[start].NodeData().Index >= 0 {
			continue
		}
		strongconnectIterative(agents, start, &indexCounter, &onStack, &nextCycleID)
	}
}

// strongconnectIterative runs Tarjan's algorithm from start using an
// explicit stack of tarjanFrame values in place of recursion.
func strongconnectIterative(agents map[string]*agent.ServerAgent, start string, indexCounter *int, onStack *[]string, nextCycleID *int64) {
	var frames []*tarjanFrame

	push := func(name string) {
		node := agents[name].NodeData()
		node.Index = *indexCounter
		node.LowestIndex = *indexCounter
		node.OnStack = true
		*indexCounter++
		*onStack = append(*onStack, name)
		frames = append(frames, &tarjanFrame{node: name, children: node.Parents})
	}

	push(start)

	for len(frames) > 0 {
		top := frames[len(frames)-1]
		u := agents[top.node].NodeData()

		if top.childIdx < len(top.children) {
			v := top.children[top.childIdx]
			top.childIdx++

			vNode := agents[v].NodeData()
			if vNode.Index < 0 {
				push(v)
				continue
			}
			if vNode.OnStack && vNode.Index < u.LowestIndex {
				u.LowestIndex = vNode.Index
			}
			continue
		}

		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := agents[frames[len(frames)-1].node].NodeData()
			if u.LowestIndex < parent.LowestIndex {
				parent.LowestIndex = u.LowestIndex
			}
		}

		if u.LowestIndex == u.Index {
			var members []string
			for {
				w := (*onStack)[len(*onStack)-1]
				*onStack = (*onStack)[:len(*onStack)-1]
				agents[w].NodeData().OnStack = false
				members = append(members, w)
				if w == top.node {
					break
				}
			}
			if len(members) > 1 {
				cycleID := *nextCycleID
				*nextCycleID++
				for _, w := range members {
					node := agents[w].NodeData()
					node.CycleID = cycleID
					node.HasCycle = true
				}
			}
		}
	}
}

func sortedNames(agents map[string]*agent.ServerAgent) []string {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
