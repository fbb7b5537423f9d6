package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/field"
)

// memRepo is an in-memory Repository enforcing the (field, day) uniqueness
// the database constraint provides.
type memRepo struct {
	mu   sync.Mutex
	rows map[string]*WeeklySchedule
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*WeeklySchedule)}
}

func (r *memRepo) Create(_ context.Context, s *WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.FieldID == s.FieldID && row.DayOfWeek == s.DayOfWeek {
			return ErrDuplicate
		}
	}
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.rows[s.ID] = &cp
	return nil
}

func (r *memRepo) find(match func(*WeeklySchedule) bool) (*WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) GetByID(_ context.Context, id string) (*WeeklySchedule, error) {
	return r.find(func(s *WeeklySchedule) bool { return s.ID == id })
}

func (r *memRepo) GetForDay(_ context.Context, fieldID string, day int) (*WeeklySchedule, error) {
	return r.find(func(s *WeeklySchedule) bool {
		return s.FieldID == fieldID && s.DayOfWeek == day && s.IsAvailable
	})
}

func (r *memRepo) FindByFieldDay(_ context.Context, fieldID string, day int) (*WeeklySchedule, error) {
	return r.find(func(s *WeeklySchedule) bool { return s.FieldID == fieldID && s.DayOfWeek == day })
}

func (r *memRepo) ListByField(_ context.Context, fieldID string) ([]*WeeklySchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*WeeklySchedule
	for _, row := range r.rows {
		if row.FieldID == fieldID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, s *WeeklySchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; !ok {
		return ErrNotFound
	}
	cp := *s
	r.rows[s.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fieldsStub map[string]*field.Field

func (f fieldsStub) GetByID(_ context.Context, id string) (*field.Field, error) {
	if fl, ok := f[id]; ok {
		return fl, nil
	}
	return nil, field.ErrNotFound
}

type cacheSpy struct {
	mu     sync.Mutex
	fields []string
}

func (c *cacheSpy) InvalidateField(_ context.Context, fieldID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = append(c.fields, fieldID)
	return nil
}

var (
	admin    = auth.Principal{ID: "admin-1", Role: auth.RoleAdmin}
	customer = auth.Principal{ID: "cust-1", Role: auth.RoleCustomer}
)

const fieldA = "11111111-1111-1111-1111-111111111111"

func newTestService() (Service, *memRepo, *cacheSpy) {
	repo := newMemRepo()
	cache := &cacheSpy{}
	fields := fieldsStub{fieldA: {ID: fieldA, Name: "Field A", IsActive: true}}
	return NewService(repo, fields, cache, zerolog.Nop()), repo, cache
}

func mondayRequest(t *testing.T, start, end string, available bool) CreateRequest {
	s, e, err := ParseWindow(start, end, bangkok)
	require.NoError(t, err)
	return CreateRequest{
		FieldID:     fieldA,
		DayOfWeek:   int(time.Monday),
		StartTime:   s,
		EndTime:     e,
		IsAvailable: &available,
	}
}

func TestCreateSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _, cache := newTestService()

	ws, err := svc.Create(ctx, admin, mondayRequest(t, "08:00", "12:00", true))
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.True(t, ws.IsAvailable)
	assert.Equal(t, []string{fieldA}, cache.fields)

	got, err := svc.GetForDay(ctx, fieldA, int(time.Monday))
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)

	_, err = svc.GetForDay(ctx, fieldA, int(time.Tuesday))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateScheduleRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Create(ctx, admin, mondayRequest(t, "08:00", "12:00", true))
	require.NoError(t, err)

	// A closed second row for the same day is still a duplicate.
	_, err = svc.Create(ctx, admin, mondayRequest(t, "13:00", "15:00", false))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateScheduleValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	t.Run("Forbidden", func(t *testing.T) {
		_, err := svc.Create(ctx, customer, mondayRequest(t, "08:00", "12:00", true))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("InvalidRange", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, mondayRequest(t, "12:00", "08:00", true))
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("DayOutOfRange", func(t *testing.T) {
		req := mondayRequest(t, "08:00", "12:00", true)
		req.DayOfWeek = 7
		_, err := svc.Create(ctx, admin, req)
		assert.ErrorIs(t, err, ErrDayOfWeekOutOfRange)
	})

	t.Run("UnknownField", func(t *testing.T) {
		req := mondayRequest(t, "08:00", "12:00", true)
		req.FieldID = "22222222-2222-2222-2222-222222222222"
		_, err := svc.Create(ctx, admin, req)
		assert.ErrorIs(t, err, ErrFieldNotFound)
	})
}

func TestGetForDaySkipsUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Create(ctx, admin, mondayRequest(t, "08:00", "12:00", false))
	require.NoError(t, err)

	_, err = svc.GetForDay(ctx, fieldA, int(time.Monday))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	monday, err := svc.Create(ctx, admin, mondayRequest(t, "08:00", "12:00", true))
	require.NoError(t, err)

	tuesdayReq := mondayRequest(t, "08:00", "12:00", true)
	tuesdayReq.DayOfWeek = int(time.Tuesday)
	_, err = svc.Create(ctx, admin, tuesdayReq)
	require.NoError(t, err)

	t.Run("MoveOntoTakenDay", func(t *testing.T) {
		day := int(time.Tuesday)
		_, err := svc.Update(ctx, admin, monday.ID, UpdateRequest{DayOfWeek: &day})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("CloseDay", func(t *testing.T) {
		closed := false
		ws, err := svc.Update(ctx, admin, monday.ID, UpdateRequest{IsAvailable: &closed})
		require.NoError(t, err)
		assert.False(t, ws.IsAvailable)
	})

	t.Run("BadWindow", func(t *testing.T) {
		end := monday.StartTime.Add(-time.Hour)
		_, err := svc.Update(ctx, admin, monday.ID, UpdateRequest{EndTime: &end})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("CustomerForbidden", func(t *testing.T) {
		closed := false
		_, err := svc.Update(ctx, customer, monday.ID, UpdateRequest{IsAvailable: &closed})
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestDeleteSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	ws, err := svc.Create(ctx, admin, mondayRequest(t, "08:00", "12:00", true))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, customer, ws.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, ws.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, ws.ID), ErrNotFound)

	list, err := svc.ListByField(ctx, fieldA)
	require.NoError(t, err)
	assert.Empty(t, list)
}
