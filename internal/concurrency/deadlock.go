package concurrency

import (
	"fmt"
	"sync"

	"github.com/nen-co/nendb/internal/nenerr"
)

// maxLocksPerOwner bounds how many distinct lock ids a single owner may
// hold concurrently, per spec.md §4.8.
const maxLocksPerOwner = 16

// DeadlockDetector enforces a fixed lock acquisition order by rejecting
// reentrant acquisition of a lock id an owner already holds. "Owner" is
// caller-supplied (a goroutine has no stable exposed identity in Go) and is
// typically a transaction id or a thread-local token the caller manages.
type DeadlockDetector struct {
	mu   sync.Mutex
	held map[string]map[uint64]struct{}
}

// NewDeadlockDetector returns an empty detector.
func NewDeadlockDetector() *DeadlockDetector {
	return &DeadlockDetector{held: make(map[string]map[uint64]struct{})}
}

// Acquire records that owner now holds lockID. It fails with
// nenerr.ErrAlreadyLocked if owner already holds lockID (reentrant
// acquisition) or already holds maxLocksPerOwner locks.
func (d *DeadlockDetector) Acquire(owner string, lockID uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.held[owner]
	if !ok {
		set = make(map[uint64]struct{})
		d.held[owner] = set
	}
	if _, already := set[lockID]; already {
		return fmt.Errorf("%w: owner %q already holds lock %d", nenerr.ErrAlreadyLocked, owner, lockID)
	}
	if len(set) >= maxLocksPerOwner {
		return fmt.Errorf("%w: owner %q already holds %d locks (max %d)", nenerr.ErrAlreadyLocked, owner, len(set), maxLocksPerOwner)
	}
	set[lockID] = struct{}{}
	return nil
}

// Release removes lockID from owner's held set. Releasing a lock not held
// is a no-op, mirroring the "caller must release in reverse order" contract
// in spec.md §7 without re-validating ordering here.
func (d *DeadlockDetector) Release(owner string, lockID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.held[owner]
	if !ok {
		return
	}
	delete(set, lockID)
	if len(set) == 0 {
		delete(d.held, owner)
	}
}

// HeldCount reports how many locks owner currently holds, for tests and
// diagnostics.
func (d *DeadlockDetector) HeldCount(owner string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.held[owner])
}
