package workflow

// LockCount reports how many per-session locks are currently held or
// awaited.
func LockCount(w *Workflow) int {
	return w.locks.size()
}
