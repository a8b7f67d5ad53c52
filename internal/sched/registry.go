package sched

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Registry owns the task list. Iteration order is insertion order, which
// also matches ascending id order because ids are handed out monotonically.
type Registry struct {
	tasks  *linkedhashmap.Map // TaskID -> *Task
	nextID TaskID
}

func NewRegistry() *Registry {
	return &Registry{tasks: linkedhashmap.New()}
}

// Add inserts a task built from an already validated spec.
func (r *Registry) Add(spec TaskSpec) *Task {
	t := newTask(r.nextID, spec)
	r.nextID++
	r.tasks.Put(t.ID, t)
	return t
}

// Remove deletes the task with the given id. Unknown ids are ignored.
func (r *Registry) Remove(id TaskID) bool {
	if _, ok := r.tasks.Get(id); !ok {
		return false
	}
	r.tasks.Remove(id)
	return true
}

func (r *Registry) Get(id TaskID) (*Task, bool) {
	v, ok := r.tasks.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// Tasks returns the live tasks in registry order.
func (r *Registry) Tasks() []*Task {
	values := r.tasks.Values()
	out := make([]*Task, 0, len(values))
	for _, v := range values {
		out = append(out, v.(*Task))
	}
	return out
}

func (r *Registry) Len() int { return r.tasks.Size() }

// Replace drops every task and loads specs with ids 0..n-1.
func (r *Registry) Replace(specs []TaskSpec) {
	r.tasks.Clear()
	r.nextID = 0
	for _, spec := range specs {
		r.Add(spec)
	}
}

// Reset restores the runtime state of every task.
func (r *Registry) Reset() {
	for _, t := range r.Tasks() {
		t.reset()
	}
}
