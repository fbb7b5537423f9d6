package booking

import (
	"context"
	"time"
)

// OverlapFinder is the read primitive overlap checks are built on.
type OverlapFinder interface {
	FindActiveOverlaps(ctx context.Context, fieldID string, date, start, end time.Time, excludeID string) ([]*Booking, error)
}

// ConflictDetector answers whether a proposed range collides with an active
// booking of the same field and date.
type ConflictDetector struct {
	finder OverlapFinder
}

func NewConflictDetector(finder OverlapFinder) *ConflictDetector {
	return &ConflictDetector{finder: finder}
}

// HasConflict reports whether [start, end) overlaps an active booking other
// than excludeID.
func (d *ConflictDetector) HasConflict(ctx context.Context, fieldID string, date, start, end time.Time, excludeID string) (bool, error) {
	overlaps, err := d.finder.FindActiveOverlaps(ctx, fieldID, date, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(overlaps) > 0, nil
}
