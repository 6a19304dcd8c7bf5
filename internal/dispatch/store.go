package dispatch

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/brasa-pos/api/internal/state"
)

// SnapshotSaver persists the state blob after a successful dispatch.
// Satisfied by *database.SnapshotStore.
type SnapshotSaver interface {
	Save(ctx context.Context, blob []byte) error
}

// Notifier observes successfully applied actions, e.g. to fan events
// out to kitchen lane boards.
type Notifier interface {
	Notify(a Action, s state.State)
}

// Store is the single writer over the application state. Every
// mutation flows through Dispatch, which serializes actions behind one
// mutex. This is the serialization point a multi-terminal deployment
// relies on.
type Store struct {
	mu       sync.Mutex
	state    state.State
	saver    SnapshotSaver
	notifier Notifier
}

// NewStore creates a Store seeded with an initial snapshot. saver and
// notifier may be nil.
func NewStore(initial state.State, saver SnapshotSaver, notifier Notifier) *Store {
	return &Store{state: initial, saver: saver, notifier: notifier}
}

// Dispatch reduces one action and installs the resulting snapshot.
// On a reducer error the state is unchanged and the error is returned
// for the caller to surface. Snapshot persistence failures are logged
// but do not roll back the in-memory state: the reducer stays
// authoritative.
func (st *Store) Dispatch(ctx context.Context, a Action) (state.State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next, err := Reduce(st.state, a, time.Now())
	if err != nil {
		return st.state, err
	}
	st.state = next

	if st.saver != nil {
		blob, err := json.Marshal(next)
		if err != nil {
			log.Printf("ERROR: marshal state snapshot: %v", err)
		} else if err := st.saver.Save(ctx, blob); err != nil {
			log.Printf("ERROR: save state snapshot: %v", err)
		}
	}
	if st.notifier != nil {
		st.notifier.Notify(a, next)
	}
	return next, nil
}

// State returns the current snapshot. Callers must treat it as
// read-only.
func (st *Store) State() state.State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}
