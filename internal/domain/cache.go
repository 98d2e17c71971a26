package domain

import (
	"context"
	"time"
)

// Locker serialises critical sections across API instances.
// Acquire blocks until the lock is held or the wait budget is spent, in which
// case it returns ErrLockBusy. The returned release func is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// EnrollmentLockKey is the lock guarding the capacity check of one date range
func EnrollmentLockKey(packageID, dateRangeID string) string {
	return "lock:enroll:" + packageID + ":" + dateRangeID
}
