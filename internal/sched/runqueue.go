package sched

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// nodeKey is used as a key in the red-black tree.
type nodeKey struct {
	score int64
	id    TaskID
}

// cmp orders by policy score, then by task id so equal scores keep
// registry order.
func cmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.score < kb.score:
		return -1
	case ka.score > kb.score:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}

// readySet filters tasks down to the ones eligible at now, in registry order.
func readySet(tasks []*Task, now int64) []*Task {
	ready := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Eligible(now) {
			ready = append(ready, t)
		}
	}
	return ready
}

// rank returns ready ordered by the policy, best first.
func rank(ready []*Task, p Policy, now int64) []*Task {
	rbt := redblacktree.NewWith(cmp)
	for _, t := range ready {
		rbt.Put(nodeKey{score: p.Key(t, now), id: t.ID}, t)
	}
	out := make([]*Task, 0, rbt.Size())
	for _, v := range rbt.Values() {
		out = append(out, v.(*Task))
	}
	return out
}
