package repositories

import "errors"

// Sentinel errors shared by every repository implementation. Callers
// test with errors.Is so backends can wrap them with context.
var (
	// ErrNotFound signals a lookup miss.
	ErrNotFound = errors.New("entity not found")
	// ErrStaleSnapshot signals a compare-and-set version conflict on a
	// rotation state write. The caller reloads and retries once.
	ErrStaleSnapshot = errors.New("rotation snapshot is stale")
	// ErrDuplicateSchedule signals a uniqueness violation on the
	// (analyst, date, shiftType) slot. SaveAll without overwrite skips
	// taken slots per the ScheduleRepository contract, so the SQLite store
	// never returns it.
	ErrDuplicateSchedule = errors.New("schedule slot already exists")
)
