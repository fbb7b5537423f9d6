package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/field-booking-backend/internal/db"
)

const uniqueFieldDay = "schedules_field_day_key"

type Repository interface {
	Create(ctx context.Context, s *WeeklySchedule) error
	GetByID(ctx context.Context, id string) (*WeeklySchedule, error)
	// GetForDay returns the available schedule of a field for a day of week.
	GetForDay(ctx context.Context, fieldID string, dayOfWeek int) (*WeeklySchedule, error)
	// FindByFieldDay returns the schedule for a field and day regardless of availability.
	FindByFieldDay(ctx context.Context, fieldID string, dayOfWeek int) (*WeeklySchedule, error)
	ListByField(ctx context.Context, fieldID string) ([]*WeeklySchedule, error)
	Update(ctx context.Context, s *WeeklySchedule) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var scheduleColumns = []string{
	"id", "field_id", "day_of_week", "start_time", "end_time", "is_available", "created_at", "updated_at",
}

func scanSchedule(row pgx.Row, s *WeeklySchedule) error {
	return row.Scan(&s.ID, &s.FieldID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
}

// mapWriteError translates constraint violations raised by inserts and updates.
func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, uniqueFieldDay):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrFieldNotFound
	}
	return err
}

func (r *pgxRepository) Create(ctx context.Context, s *WeeklySchedule) error {
	query, args, err := psql.Insert("public.schedules").
		Columns("field_id", "day_of_week", "start_time", "end_time", "is_available").
		Values(s.FieldID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsAvailable).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create schedule query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create schedule failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*WeeklySchedule, error) {
	query, args, err := psql.Select(scheduleColumns...).
		From("public.schedules").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get schedule query failed: %w", err)
	}

	var s WeeklySchedule
	if err := scanSchedule(r.pool.QueryRow(ctx, query, args...), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get schedule failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*WeeklySchedule, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetForDay(ctx context.Context, fieldID string, dayOfWeek int) (*WeeklySchedule, error) {
	return r.getOne(ctx, squirrel.Eq{"field_id": fieldID, "day_of_week": dayOfWeek, "is_available": true})
}

func (r *pgxRepository) FindByFieldDay(ctx context.Context, fieldID string, dayOfWeek int) (*WeeklySchedule, error) {
	return r.getOne(ctx, squirrel.Eq{"field_id": fieldID, "day_of_week": dayOfWeek})
}

func (r *pgxRepository) ListByField(ctx context.Context, fieldID string) ([]*WeeklySchedule, error) {
	query, args, err := psql.Select(scheduleColumns...).
		From("public.schedules").
		Where(squirrel.Eq{"field_id": fieldID}).
		OrderBy("day_of_week ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list schedules query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules failed: %w", err)
	}
	defer rows.Close()

	var result []*WeeklySchedule
	for rows.Next() {
		var s WeeklySchedule
		if err := scanSchedule(rows, &s); err != nil {
			return nil, fmt.Errorf("scan schedule failed: %w", err)
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules failed: %w", err)
	}
	return result, nil
}

func (r *pgxRepository) Update(ctx context.Context, s *WeeklySchedule) error {
	query, args, err := psql.Update("public.schedules").
		Set("day_of_week", s.DayOfWeek).
		Set("start_time", s.StartTime).
		Set("end_time", s.EndTime).
		Set("is_available", s.IsAvailable).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update schedule query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update schedule failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.schedules").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete schedule query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete schedule failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
