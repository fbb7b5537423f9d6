package field

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/field-booking-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, f *Field) error
	GetByID(ctx context.Context, id string) (*Field, error)
	List(ctx context.Context, filter Filter) ([]*Field, int, error)
	Update(ctx context.Context, f *Field) error
	// Delete removes the field together with its bookings, schedules and photo
	// records in one transaction. It returns the storage paths of removed photos.
	Delete(ctx context.Context, id string) ([]string, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var fieldColumns = []string{
	"id", "name", "field_type", "description", "price_per_hour", "is_active", "created_at", "updated_at",
}

func scanField(row pgx.Row, f *Field, extra ...any) error {
	dest := []any{
		&f.ID, &f.Name, &f.FieldType, &f.Description, &f.PricePerHour, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *pgxRepository) Create(ctx context.Context, f *Field) error {
	query, args, err := psql.Insert("public.fields").
		Columns("name", "field_type", "description", "price_per_hour", "is_active").
		Values(f.Name, f.FieldType, f.Description, f.PricePerHour, f.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create field query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return fmt.Errorf("create field failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Field, error) {
	query, args, err := psql.Select(fieldColumns...).
		From("public.fields").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get field query failed: %w", err)
	}

	var f Field
	if err := scanField(r.pool.QueryRow(ctx, query, args...), &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get field failed: %w", err)
	}
	return &f, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Field, int, error) {
	query := psql.Select(append(fieldColumns, "count(*) OVER() AS total_count")...).
		From("public.fields")

	if filter.Name != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Name + "%"})
	}
	if filter.FieldType != "" {
		query = query.Where(squirrel.Eq{"field_type": filter.FieldType})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy(orderBy+" "+orderDir, "id")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64((filter.Page - 1) * filter.PageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list fields query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list fields failed: %w", err)
	}
	defer rows.Close()

	var result []*Field
	var total int
	for rows.Next() {
		var f Field
		if err := scanField(rows, &f, &total); err != nil {
			return nil, 0, fmt.Errorf("scan field failed: %w", err)
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate fields failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, f *Field) error {
	query, args, err := psql.Update("public.fields").
		Set("name", f.Name).
		Set("field_type", f.FieldType).
		Set("description", f.Description).
		Set("price_per_hour", f.PricePerHour).
		Set("is_active", f.IsActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": f.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update field query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update field failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) ([]string, error) {
	var paths []string

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock the field row first so concurrent bookings against it wait.
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM public.fields WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock field failed: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM public.bookings WHERE field_id = $1`, id); err != nil {
			return fmt.Errorf("delete field bookings failed: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM public.schedules WHERE field_id = $1`, id); err != nil {
			return fmt.Errorf("delete field schedules failed: %w", err)
		}

		rows, err := tx.Query(ctx, `
			DELETE FROM public.field_photos WHERE field_id = $1
			RETURNING storage_path, thumbnail_path
		`, id)
		if err != nil {
			return fmt.Errorf("delete field photos failed: %w", err)
		}
		for rows.Next() {
			var storagePath string
			var thumbPath *string
			if err := rows.Scan(&storagePath, &thumbPath); err != nil {
				rows.Close()
				return fmt.Errorf("scan deleted photo failed: %w", err)
			}
			paths = append(paths, storagePath)
			if thumbPath != nil {
				paths = append(paths, *thumbPath)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate deleted photos failed: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM public.fields WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete field failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
