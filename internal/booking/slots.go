package booking

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
)

// Slot is a bookable one-hour interval.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
}

// SlotSeq yields the free one-hour slots of a field on date, in ascending
// order. A nil or unavailable schedule yields nothing. An hour is taken when
// it intersects the local-hour span of any active booking, with the booking
// rounded outward to whole hours.
func SlotSeq(ws *schedule.WeeklySchedule, bookings []*Booking, date time.Time, loc *time.Location) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if ws == nil || !ws.IsAvailable {
			return
		}

		startHour, endHour := ws.LocalHours(loc)
		midnight := LocalMidnight(date, loc)
		taken := takenHours(bookings, midnight)

		for h := startHour; h < endHour; h++ {
			if taken[h] {
				continue
			}
			slot := Slot{
				StartTime: midnight.Add(time.Duration(h) * time.Hour),
				EndTime:   midnight.Add(time.Duration(h+1) * time.Hour),
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// GenerateSlots collects SlotSeq.
func GenerateSlots(ws *schedule.WeeklySchedule, bookings []*Booking, date time.Time, loc *time.Location) []Slot {
	return slices.Collect(SlotSeq(ws, bookings, date, loc))
}

func takenHours(bookings []*Booking, midnight time.Time) [24]bool {
	var taken [24]bool
	for _, b := range bookings {
		if !b.Status.IsActive() {
			continue
		}
		from := int(math.Floor(b.StartTime.Sub(midnight).Hours()))
		to := int(math.Ceil(b.EndTime.Sub(midnight).Hours()))
		for h := max(from, 0); h < min(to, 24); h++ {
			taken[h] = true
		}
	}
	return taken
}
