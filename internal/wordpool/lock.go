package wordpool

import "github.com/venh/typeclash/internal/model"

// LockState is the manager's advisory mirror of the orchestrator's
// word lock, kept for selection statistics.
type LockState struct {
	locked model.WordType
}

// CanLock reports whether a lock of the given type could be taken.
func (l *LockState) CanLock(wt model.WordType) bool {
	return wt != model.WordTypeNone && l.locked == model.WordTypeNone
}

// Lock takes the lock; it fails when another type already holds it.
func (l *LockState) Lock(wt model.WordType) bool {
	if !l.CanLock(wt) {
		return false
	}
	l.locked = wt
	return true
}

// Unlock releases the lock.
func (l *LockState) Unlock() {
	l.locked = model.WordTypeNone
}

// IsLocked reports whether any word is locked.
func (l *LockState) IsLocked() bool {
	return l.locked != model.WordTypeNone
}

// LockedType returns the currently locked type, or WordTypeNone.
func (l *LockState) LockedType() model.WordType {
	return l.locked
}
