package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/field-booking-backend/internal/db"
)

const overlapConstraint = "bookings_no_active_overlap"

// MutateFunc receives the locked current state of a booking and returns the
// state to persist. Returning an error aborts the transaction.
type MutateFunc func(current *Booking) (*Booking, error)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, q Query) ([]*Booking, int, error)
	// Summary aggregates bookings of customerID, or of everyone when empty.
	// Upcoming counts active bookings starting in [upcomingFrom, upcomingTo).
	Summary(ctx context.Context, customerID string, upcomingFrom, upcomingTo time.Time) (*Summary, error)

	// FindActiveOverlaps returns pending or confirmed bookings of the field on
	// date whose [start_time, end_time) intersects [start, end).
	// excludeID, when set, is left out of the result.
	FindActiveOverlaps(ctx context.Context, fieldID string, date, start, end time.Time, excludeID string) ([]*Booking, error)

	// Create inserts b after checking for overlaps while holding the
	// (field, date) write lock. It fails with ErrSlotConflict on overlap.
	Create(ctx context.Context, b *Booking) error
	// Modify locks the booking, applies fn and persists the result in one
	// transaction. When the result is active and its slot moved, the overlap
	// check runs again under the (field, date) write lock.
	Modify(ctx context.Context, id string, fn MutateFunc) (*Booking, error)
	// CompleteEnded marks confirmed bookings that ended before the given time
	// as completed and returns how many changed.
	CompleteEnded(ctx context.Context, before time.Time) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.customer_id", "COALESCE(u.display_name, u.email)", "b.field_id", "f.name",
	"b.booking_date", "b.start_time", "b.end_time", "b.duration", "b.total_price", "b.status",
	"b.created_at", "b.updated_at",
}

func selectBookings(columns ...string) squirrel.SelectBuilder {
	return psql.Select(append(append([]string{}, bookingColumns...), columns...)...).
		From("public.bookings b").
		Join("public.users u ON b.customer_id = u.id").
		Join("public.fields f ON b.field_id = f.id")
}

func scanBooking(row pgx.Row, b *Booking, extra ...any) error {
	dest := []any{
		&b.ID, &b.CustomerID, &b.CustomerName, &b.FieldID, &b.FieldName,
		&b.BookingDate, &b.StartTime, &b.EndTime, &b.Duration, &b.TotalPrice, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// lockKey identifies the unit of write serialization for overlap checks.
func lockKey(fieldID string, date time.Time) string {
	return fieldID + "/" + date.Format(time.DateOnly)
}

func getBooking(ctx context.Context, q db.Querier, id string, forUpdate bool) (*Booking, error) {
	builder := selectBookings().Where(squirrel.Eq{"b.id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE OF b")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	if err := scanBooking(q.QueryRow(ctx, query, args...), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func findActiveOverlaps(ctx context.Context, q db.Querier, fieldID string, date, start, end time.Time, excludeID string) ([]*Booking, error) {
	builder := selectBookings().
		Where(squirrel.Eq{"b.field_id": fieldID, "b.booking_date": date, "b.status": ActiveStatuses}).
		// Half-open: touching endpoints do not overlap.
		Where(squirrel.Lt{"b.start_time": end}).
		Where(squirrel.Gt{"b.end_time": start}).
		OrderBy("b.start_time ASC")
	if excludeID != "" {
		builder = builder.Where(squirrel.NotEq{"b.id": excludeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find overlaps failed: %w", err)
	}
	defer rows.Close()

	var result []*Booking
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overlaps failed: %w", err)
	}
	return result, nil
}

// lockAndCheck serializes writers of the booking's (field, date) and fails
// when an active booking other than b overlaps it.
func lockAndCheck(ctx context.Context, tx pgx.Tx, b *Booking) error {
	if err := db.LockKey(ctx, tx, lockKey(b.FieldID, b.BookingDate)); err != nil {
		return err
	}
	overlaps, err := findActiveOverlaps(ctx, tx, b.FieldID, b.BookingDate, b.StartTime, b.EndTime, b.ID)
	if err != nil {
		return err
	}
	if len(overlaps) > 0 {
		return ErrSlotConflict
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsExclusionViolation(err, overlapConstraint):
		return ErrSlotConflict
	case db.IsForeignKeyViolation(err):
		return ErrFieldNotFound
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return getBooking(ctx, r.pool, id, false)
}

func (r *pgxRepository) FindActiveOverlaps(ctx context.Context, fieldID string, date, start, end time.Time, excludeID string) ([]*Booking, error) {
	return findActiveOverlaps(ctx, r.pool, fieldID, date, start, end, excludeID)
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockAndCheck(ctx, tx, b); err != nil {
			return err
		}

		query, args, err := psql.Insert("public.bookings").
			Columns("customer_id", "field_id", "booking_date", "start_time", "end_time", "duration", "total_price", "status").
			Values(b.CustomerID, b.FieldID, b.BookingDate, b.StartTime, b.EndTime, b.Duration, b.TotalPrice, b.Status).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create booking query failed: %w", err)
		}

		var id string
		if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			if mapped := mapWriteError(err); mapped != nil {
				return mapped
			}
			return fmt.Errorf("create booking failed: %w", err)
		}

		created, err := getBooking(ctx, tx, id, false)
		if err != nil {
			return err
		}
		*b = *created
		return nil
	})
}

func (r *pgxRepository) Modify(ctx context.Context, id string, fn MutateFunc) (*Booking, error) {
	var result *Booking

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := getBooking(ctx, tx, id, true)
		if err != nil {
			return err
		}

		next, err := fn(current.clone())
		if err != nil {
			return err
		}
		next.ID = current.ID

		if next.Status.IsActive() && slotChanged(current, next) {
			if err := lockAndCheck(ctx, tx, next); err != nil {
				return err
			}
		}

		query, args, err := psql.Update("public.bookings").
			Set("field_id", next.FieldID).
			Set("booking_date", next.BookingDate).
			Set("start_time", next.StartTime).
			Set("end_time", next.EndTime).
			Set("duration", next.Duration).
			Set("total_price", next.TotalPrice).
			Set("status", next.Status).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update booking query failed: %w", err)
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			if mapped := mapWriteError(err); mapped != nil {
				return mapped
			}
			return fmt.Errorf("update booking failed: %w", err)
		}

		result, err = getBooking(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func slotChanged(current, next *Booking) bool {
	return current.FieldID != next.FieldID ||
		!current.BookingDate.Equal(next.BookingDate) ||
		!current.StartTime.Equal(next.StartTime) ||
		!current.EndTime.Equal(next.EndTime) ||
		!current.Status.IsActive()
}

func (r *pgxRepository) List(ctx context.Context, q Query) ([]*Booking, int, error) {
	builder := selectBookings("count(*) OVER() AS total_count")

	if q.CustomerID != "" {
		builder = builder.Where(squirrel.Eq{"b.customer_id": q.CustomerID})
	}
	if q.FieldID != "" {
		builder = builder.Where(squirrel.Eq{"b.field_id": q.FieldID})
	}
	if q.Status != "" {
		builder = builder.Where(squirrel.Eq{"b.status": q.Status})
	}
	if q.DateFrom != nil {
		builder = builder.Where(squirrel.GtOrEq{"b.booking_date": *q.DateFrom})
	}
	if q.DateTo != nil {
		builder = builder.Where(squirrel.LtOrEq{"b.booking_date": *q.DateTo})
	}

	orderBy, ok := sortColumns[q.SortBy]
	if !ok {
		orderBy = sortColumns["created_at"]
	}
	orderDir := "DESC"
	if q.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	builder = builder.OrderBy(orderBy+" "+orderDir, "b.id")

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	builder = builder.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b, &total); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Summary(ctx context.Context, customerID string, upcomingFrom, upcomingTo time.Time) (*Summary, error) {
	builder := psql.Select(
		"count(*)",
		"count(*) FILTER (WHERE status = 'pending')",
		"count(*) FILTER (WHERE status = 'confirmed')",
		"count(*) FILTER (WHERE status = 'cancelled')",
		"count(*) FILTER (WHERE status = 'rejected')",
		"count(*) FILTER (WHERE status = 'completed')",
	).
		Column(squirrel.Expr(
			"count(*) FILTER (WHERE status IN ('pending', 'confirmed') AND start_time >= ? AND start_time < ?)",
			upcomingFrom, upcomingTo,
		)).
		Column("COALESCE(sum(total_price) FILTER (WHERE status IN ('pending', 'confirmed', 'completed')), 0)").
		From("public.bookings")

	if customerID != "" {
		builder = builder.Where(squirrel.Eq{"customer_id": customerID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking summary query failed: %w", err)
	}

	var s Summary
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.Total, &s.Pending, &s.Confirmed, &s.Cancelled, &s.Rejected, &s.Completed, &s.Upcoming, &s.TotalSpending,
	); err != nil {
		return nil, fmt.Errorf("booking summary failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) CompleteEnded(ctx context.Context, before time.Time) (int, error) {
	query, args, err := psql.Update("public.bookings").
		Set("status", StatusCompleted).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"status": StatusConfirmed}).
		Where(squirrel.LtOrEq{"end_time": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build complete bookings query failed: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("complete bookings failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
