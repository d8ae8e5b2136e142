package store

import (
	"context"
	"sync"
)

// Reducer builds the next state from the prior one. Returning an error
// leaves the prior state current.
type Reducer func(State) (State, error)

// CommitHook observes every successfully applied state. Hooks run outside
// the store lock in registration order; a slow hook delays the caller, not
// other readers.
type CommitHook func(ctx context.Context, next State)

// Store guards the current State. The original system had a single writer;
// HTTP handlers run concurrently, so a mutex serializes reducers here while
// readers keep working on snapshots.
type Store struct {
	mu    sync.RWMutex
	state State
	hooks []CommitHook
}

// New creates a store seeded with the given state.
func New(initial State) *Store {
	return &Store{state: initial}
}

// Snapshot returns the current state value. Later writes produce new states
// and never modify what a snapshot holder sees.
func (st *Store) Snapshot() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state
}

// OnCommit registers a hook invoked after every successful Apply.
func (st *Store) OnCommit(hook CommitHook) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.hooks = append(st.hooks, hook)
}

// Apply runs the reducer against the current state and installs the result.
func (st *Store) Apply(ctx context.Context, reduce Reducer) (State, error) {
	st.mu.Lock()
	next, err := reduce(st.state)
	if err != nil {
		st.mu.Unlock()
		return State{}, err
	}
	st.state = next
	hooks := append([]CommitHook(nil), st.hooks...)
	st.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, next)
	}
	return next, nil
}
