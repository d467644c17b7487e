package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteGearRepository struct {
	db *sql.DB
}

func NewSQLiteGearRepository(db *sql.DB) GearRepository {
	return &sqliteGearRepository{db: db}
}

const gearColumns = `id, owner_id, title, description, category, daily_price_cents, currency, location, lat, lon, image_url, is_listed, created_at, updated_at`

func (r *sqliteGearRepository) Create(ctx context.Context, g *models.Gear) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gear (id, owner_id, title, description, category, daily_price_cents, currency, location, lat, lon, image_url, is_listed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Title, nullStr(g.Description), g.Category,
		g.DailyPriceCents, g.Currency, g.Location, nullFloat(g.Lat), nullFloat(g.Lon),
		nullStr(g.ImageURL), boolInt(g.IsListed), now, now)
	if err != nil {
		return fmt.Errorf("gear create failed: %w", err)
	}
	return nil
}

func (r *sqliteGearRepository) GetByID(ctx context.Context, id string) (*models.Gear, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+gearColumns+` FROM gear WHERE id = ?`, id)
	g, err := scanGear(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "gear not found")
	}
	if err != nil {
		return nil, fmt.Errorf("gear scan failed: %w", err)
	}
	return g, nil
}

func (r *sqliteGearRepository) List(ctx context.Context, filter models.GearFilter) ([]models.Gear, error) {
	query := `SELECT ` + gearColumns + ` FROM gear WHERE is_listed = 1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Location != "" {
		query += ` AND location LIKE '%' || ? || '%'`
		args = append(args, filter.Location)
	}
	if filter.Query != "" {
		query += ` AND (title LIKE '%' || ? || '%' OR description LIKE '%' || ? || '%')`
		args = append(args, filter.Query, filter.Query)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gear list failed: %w", err)
	}
	defer rows.Close()

	return collectGear(rows)
}

func (r *sqliteGearRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Gear, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+gearColumns+` FROM gear WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("gear list failed: %w", err)
	}
	defer rows.Close()

	return collectGear(rows)
}

func (r *sqliteGearRepository) Update(ctx context.Context, g *models.Gear) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gear SET title = ?, description = ?, category = ?, daily_price_cents = ?, currency = ?, location = ?, lat = ?, lon = ?, image_url = ?, is_listed = ?, updated_at = ?
		WHERE id = ?`,
		g.Title, nullStr(g.Description), g.Category, g.DailyPriceCents, g.Currency,
		g.Location, nullFloat(g.Lat), nullFloat(g.Lon), nullStr(g.ImageURL),
		boolInt(g.IsListed), formatTime(time.Now()), g.ID)
	if err != nil {
		return fmt.Errorf("gear update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "gear not found")
	}
	return nil
}

func (r *sqliteGearRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gear WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("gear delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "gear not found")
	}
	return nil
}

func collectGear(rows *sql.Rows) ([]models.Gear, error) {
	var items []models.Gear
	for rows.Next() {
		g, err := scanGear(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("gear scan failed: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

func scanGear(scan func(dest ...any) error) (*models.Gear, error) {
	var g models.Gear
	var description, imageURL sql.NullString
	var lat, lon sql.NullFloat64
	var isListed int
	var createdAt, updatedAt string

	err := scan(&g.ID, &g.OwnerID, &g.Title, &description, &g.Category,
		&g.DailyPriceCents, &g.Currency, &g.Location, &lat, &lon,
		&imageURL, &isListed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	g.Description = strPtr(description)
	g.Lat = floatPtr(lat)
	g.Lon = floatPtr(lon)
	g.ImageURL = strPtr(imageURL)
	g.IsListed = isListed == 1
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return &g, nil
}
