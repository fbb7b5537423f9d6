package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/field-booking-backend/internal/field"
	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
)

var bangkok = time.FixedZone("UTC+07:00", 7*60*60)

// memRepo is an in-memory Repository. modifyMu plays the role of the row
// lock taken by Modify; mu guards the rows and makes check-and-insert atomic.
type memRepo struct {
	modifyMu sync.Mutex
	mu       sync.Mutex
	rows     map[string]*Booking
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*Booking)}
}

func (r *memRepo) overlapsLocked(fieldID string, date, start, end time.Time, excludeID string) []*Booking {
	var out []*Booking
	for _, b := range r.rows {
		if b.FieldID != fieldID || !b.BookingDate.Equal(date) || !b.Status.IsActive() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			out = append(out, b.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *memRepo) FindActiveOverlaps(_ context.Context, fieldID string, date, start, end time.Time, excludeID string) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlapsLocked(fieldID, date, start, end, excludeID), nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.clone(), nil
}

func (r *memRepo) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.overlapsLocked(b.FieldID, b.BookingDate, b.StartTime, b.EndTime, "")) > 0 {
		return ErrSlotConflict
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.rows[b.ID] = b.clone()
	return nil
}

// put stores b as-is, bypassing overlap checks.
func (r *memRepo) put(b *Booking) *Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.rows[b.ID] = b.clone()
	return b
}

func (r *memRepo) Modify(ctx context.Context, id string, fn MutateFunc) (*Booking, error) {
	r.modifyMu.Lock()
	defer r.modifyMu.Unlock()

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(current.clone())
	if err != nil {
		return nil, err
	}
	next.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	if next.Status.IsActive() && slotChanged(current, next) {
		if len(r.overlapsLocked(next.FieldID, next.BookingDate, next.StartTime, next.EndTime, id)) > 0 {
			return nil, ErrSlotConflict
		}
	}
	next.UpdatedAt = time.Now()
	r.rows[id] = next.clone()
	return next, nil
}

func (r *memRepo) List(_ context.Context, q Query) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Booking
	for _, b := range r.rows {
		switch {
		case q.CustomerID != "" && b.CustomerID != q.CustomerID:
		case q.FieldID != "" && b.FieldID != q.FieldID:
		case q.Status != "" && b.Status != q.Status:
		case q.DateFrom != nil && b.BookingDate.Before(*q.DateFrom):
		case q.DateTo != nil && b.BookingDate.After(*q.DateTo):
		default:
			matched = append(matched, b.clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })

	total := len(matched)
	from := min((q.Page-1)*q.PageSize, total)
	to := min(from+q.PageSize, total)
	return matched[from:to], total, nil
}

func (r *memRepo) Summary(_ context.Context, customerID string, upcomingFrom, upcomingTo time.Time) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Summary{TotalSpending: decimal.Zero}
	for _, b := range r.rows {
		if customerID != "" && b.CustomerID != customerID {
			continue
		}
		s.Total++
		switch b.Status {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCancelled:
			s.Cancelled++
		case StatusRejected:
			s.Rejected++
		case StatusCompleted:
			s.Completed++
		}
		if b.Status.IsActive() && !b.StartTime.Before(upcomingFrom) && b.StartTime.Before(upcomingTo) {
			s.Upcoming++
		}
		if b.Status.IsActive() || b.Status == StatusCompleted {
			s.TotalSpending = s.TotalSpending.Add(b.TotalPrice)
		}
	}
	return s, nil
}

func (r *memRepo) CompleteEnded(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.rows {
		if b.Status == StatusConfirmed && !b.EndTime.After(before) {
			b.Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

// activeSnapshot returns copies of every active booking.
func (r *memRepo) activeSnapshot() []*Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.rows {
		if b.Status.IsActive() {
			out = append(out, b.clone())
		}
	}
	return out
}

type fieldsStub map[string]*field.Field

func (f fieldsStub) GetByID(_ context.Context, id string) (*field.Field, error) {
	if fl, ok := f[id]; ok {
		cp := *fl
		return &cp, nil
	}
	return nil, field.ErrNotFound
}

// schedulesStub maps field id and weekday to a window.
type schedulesStub map[string]map[int]*schedule.WeeklySchedule

func (s schedulesStub) GetForDay(_ context.Context, fieldID string, day int) (*schedule.WeeklySchedule, error) {
	ws, ok := s[fieldID][day]
	if !ok || !ws.IsAvailable {
		return nil, schedule.ErrNotFound
	}
	return ws, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

const (
	fieldA   = "aaaaaaaa-0000-0000-0000-000000000001"
	fieldB   = "bbbbbbbb-0000-0000-0000-000000000002"
	fieldOff = "cccccccc-0000-0000-0000-000000000003"
)

func testFields() fieldsStub {
	return fieldsStub{
		fieldA:   {ID: fieldA, Name: "Field A", PricePerHour: decimal.RequireFromString("100000"), IsActive: true},
		fieldB:   {ID: fieldB, Name: "Field B", PricePerHour: decimal.RequireFromString("150000.50"), IsActive: true},
		fieldOff: {ID: fieldOff, Name: "Closed", PricePerHour: decimal.RequireFromString("50000"), IsActive: false},
	}
}

// localDay returns the calendar date of a local y-m-d at UTC midnight.
func localDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// at returns hour:min on date in the venue's offset.
func at(date time.Time, hour, minute int) time.Time {
	return LocalMidnight(date, bangkok).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mondayWindow(startHour, endHour int) *schedule.WeeklySchedule {
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, bangkok)
	return &schedule.WeeklySchedule{
		ID:          "sched-1",
		FieldID:     fieldA,
		DayOfWeek:   int(time.Monday),
		StartTime:   ref.Add(time.Duration(startHour) * time.Hour),
		EndTime:     ref.Add(time.Duration(endHour) * time.Hour),
		IsAvailable: true,
	}
}
