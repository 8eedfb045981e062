package fix

import "sync"

// rootLocks serializes transactions per canonical project root. The
// original design assumed one tool call at a time; the lock makes
// interleaved writes from concurrent calls impossible instead of merely
// unlikely. Entries are never removed: the set of roots an agent touches
// in one server lifetime is tiny.
var rootLocks sync.Map // canonical root -> *sync.Mutex

// lockRoot acquires the lock for a canonical root and returns the
// release function.
func lockRoot(root string) func() {
	mu, _ := rootLocks.LoadOrStore(root, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
