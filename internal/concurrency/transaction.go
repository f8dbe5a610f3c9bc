// Transaction tracking follows storage/transaction.go's buffer-then-commit
// shape from the teacher, generalized from buffered Node/Edge operations to
// the bare read/write id sets spec.md §4.8 calls for: commit and abort here
// are state transitions only, since the engine's actual isolation
// enforcement is the RW lock (read_committed); the richer isolation levels
// below are reserved for a future MVCC layer that isn't built here.
package concurrency

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Isolation enumerates the isolation levels a Transaction can be tagged
// with. Only read_committed is actually enforced today (via ReadWriteLock);
// the others are recorded for forward compatibility.
type Isolation string

const (
	ReadUncommitted Isolation = "read_uncommitted"
	ReadCommitted   Isolation = "read_committed"
	RepeatableRead  Isolation = "repeatable_read"
	Serializable    Isolation = "serializable"
)

// State enumerates a Transaction's lifecycle states.
type State string

const (
	StateActive     State = "active"
	StatePreparing  State = "preparing"
	StateCommitted  State = "committed"
	StateAborted    State = "aborted"
)

// Transaction tracks which node ids a logical unit of work has read and
// written. It does not own graph data (spec.md §3): commit/abort are state
// transitions the caller observes, not operations that themselves mutate
// pools.
type Transaction struct {
	ID        string
	Isolation Isolation
	State     State
	StartTime time.Time

	readSet  map[uint64]struct{}
	writeSet map[uint64]struct{}
}

// Begin starts a new active transaction at the given isolation level.
func Begin(isolation Isolation) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		Isolation: isolation,
		State:     StateActive,
		StartTime: time.Now(),
		readSet:   make(map[uint64]struct{}),
		writeSet:  make(map[uint64]struct{}),
	}
}

// RecordRead adds nodeID to the transaction's read set. It is a no-op once
// the transaction has left the active state.
func (t *Transaction) RecordRead(nodeID uint64) {
	if t.State != StateActive {
		return
	}
	t.readSet[nodeID] = struct{}{}
}

// RecordWrite adds nodeID to the transaction's write set. It is a no-op once
// the transaction has left the active state.
func (t *Transaction) RecordWrite(nodeID uint64) {
	if t.State != StateActive {
		return
	}
	t.writeSet[nodeID] = struct{}{}
}

// ReadSet returns the set of node ids read so far, as a fresh slice.
func (t *Transaction) ReadSet() []uint64 {
	return keys(t.readSet)
}

// WriteSet returns the set of node ids written so far, as a fresh slice.
func (t *Transaction) WriteSet() []uint64 {
	return keys(t.writeSet)
}

func keys(m map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Prepare transitions active -> preparing, the point at which a caller may
// still choose to abort instead of commit.
func (t *Transaction) Prepare() error {
	if t.State != StateActive {
		return fmt.Errorf("concurrency: cannot prepare transaction %s in state %s", t.ID, t.State)
	}
	t.State = StatePreparing
	return nil
}

// Commit transitions the transaction to committed. It is valid from either
// active or preparing.
func (t *Transaction) Commit() error {
	if t.State != StateActive && t.State != StatePreparing {
		return fmt.Errorf("concurrency: cannot commit transaction %s in state %s", t.ID, t.State)
	}
	t.State = StateCommitted
	return nil
}

// Abort transitions the transaction to aborted from any non-terminal state.
// Per spec.md §5, transactions can only be aborted cooperatively by the
// holding thread; this method does not itself enforce that, it only
// performs the state transition.
func (t *Transaction) Abort() error {
	if t.State == StateCommitted || t.State == StateAborted {
		return fmt.Errorf("concurrency: cannot abort transaction %s in state %s", t.ID, t.State)
	}
	t.State = StateAborted
	return nil
}
