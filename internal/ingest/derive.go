package ingest

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DaysOpen counts whole calendar days from created to closed, or to now when
// closed is null. The result is never negative; a null created yields 0.
// now is supplied by the caller.
func DaysOpen(created, closed pgtype.Date, now time.Time) int {
	if !created.Valid {
		return 0
	}
	end := now
	if closed.Valid {
		end = closed.Time
	}
	days := int(midnight(end).Sub(midnight(created.Time)).Hours() / 24)
	return max(days, 0)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
