package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteTripRepository struct {
	db *sql.DB
}

func NewSQLiteTripRepository(db *sql.DB) TripRepository {
	return &sqliteTripRepository{db: db}
}

const tripColumns = `id, user_id, title, destination, lat, lon, start_date, end_date, notes, is_public, created_at, updated_at`

func (r *sqliteTripRepository) Create(ctx context.Context, t *models.Trip) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (id, user_id, title, destination, lat, lon, start_date, end_date, notes, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Destination, nullFloat(t.Lat), nullFloat(t.Lon),
		t.StartDate.Format("2006-01-02"), t.EndDate.Format("2006-01-02"),
		nullStr(t.Notes), boolInt(t.IsPublic), now, now)
	if err != nil {
		return fmt.Errorf("trip create failed: %w", err)
	}
	return nil
}

func (r *sqliteTripRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	t, err := scanTrip(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "trip not found")
	}
	if err != nil {
		return nil, fmt.Errorf("trip scan failed: %w", err)
	}
	return t, nil
}

func (r *sqliteTripRepository) ListByUser(ctx context.Context, userID string) ([]models.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE user_id = ? ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("trip list failed: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("trip scan failed: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func (r *sqliteTripRepository) Update(ctx context.Context, t *models.Trip) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET title = ?, destination = ?, lat = ?, lon = ?, start_date = ?, end_date = ?, notes = ?, is_public = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Destination, nullFloat(t.Lat), nullFloat(t.Lon),
		t.StartDate.Format("2006-01-02"), t.EndDate.Format("2006-01-02"),
		nullStr(t.Notes), boolInt(t.IsPublic), formatTime(time.Now()), t.ID)
	if err != nil {
		return fmt.Errorf("trip update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "trip not found")
	}
	return nil
}

func (r *sqliteTripRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("trip delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "trip not found")
	}
	return nil
}

func (r *sqliteTripRepository) AddItineraryItem(ctx context.Context, item *models.ItineraryItem) error {
	// Position, gün içindeki mevcut en büyük position + 1 olarak atanır.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO itinerary_items (id, trip_id, day, title, location, start_time, notes, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT MAX(position) + 1 FROM itinerary_items WHERE trip_id = ? AND day = ?), 0),
			?)`,
		item.ID, item.TripID, item.Day, item.Title,
		nullStr(item.Location), nullStr(item.StartTime), nullStr(item.Notes),
		item.TripID, item.Day, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("itinerary item create failed: %w", err)
	}
	return nil
}

func (r *sqliteTripRepository) ListItinerary(ctx context.Context, tripID string) ([]models.ItineraryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trip_id, day, title, location, start_time, notes, position, created_at
		FROM itinerary_items WHERE trip_id = ? ORDER BY day, position`, tripID)
	if err != nil {
		return nil, fmt.Errorf("itinerary list failed: %w", err)
	}
	defer rows.Close()

	var items []models.ItineraryItem
	for rows.Next() {
		var it models.ItineraryItem
		var location, startTime, notes sql.NullString
		var createdAt string
		if err := rows.Scan(&it.ID, &it.TripID, &it.Day, &it.Title,
			&location, &startTime, &notes, &it.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("itinerary scan failed: %w", err)
		}
		it.Location = strPtr(location)
		it.StartTime = strPtr(startTime)
		it.Notes = strPtr(notes)
		it.CreatedAt = parseTime(createdAt)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *sqliteTripRepository) DeleteItineraryItem(ctx context.Context, tripID, itemID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM itinerary_items WHERE id = ? AND trip_id = ?`, itemID, tripID)
	if err != nil {
		return fmt.Errorf("itinerary item delete failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "itinerary item not found")
	}
	return nil
}

func (r *sqliteTripRepository) FindOverlapping(ctx context.Context, userID string, excludeUserIDs []string, limit int) ([]models.TripOverlap, error) {
	exclude := append([]string{userID}, excludeUserIDs...)
	placeholders := strings.Repeat("?,", len(exclude))
	placeholders = placeholders[:len(placeholders)-1]

	// İki tarih aralığı kesişiyorsa: a.start <= b.end AND b.start <= a.end.
	// Destinasyon eşleşmesi kaba bir LIKE ile yapılır; "Lisbon, Portugal" ve
	// "Lisbon" kesişsin diye iki yönlü kontrol edilir.
	query := `
		SELECT other.id, other.user_id, other.title, other.destination, other.lat, other.lon,
		       other.start_date, other.end_date, other.notes, other.is_public, other.created_at, other.updated_at,
		       MIN(julianday(MIN(mine.end_date, other.end_date)) - julianday(MAX(mine.start_date, other.start_date))) + 1 AS overlap_days
		FROM trips AS mine
		JOIN trips AS other
		  ON other.user_id NOT IN (` + placeholders + `)
		 AND other.is_public = 1
		 AND mine.start_date <= other.end_date
		 AND other.start_date <= mine.end_date
		 AND (other.destination LIKE '%' || mine.destination || '%'
		   OR mine.destination LIKE '%' || other.destination || '%')
		WHERE mine.user_id = ?
		GROUP BY other.user_id
		ORDER BY overlap_days DESC
		LIMIT ?`

	args := make([]any, 0, len(exclude)+2)
	for _, id := range exclude {
		args = append(args, id)
	}
	args = append(args, userID, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("overlap query failed: %w", err)
	}
	defer rows.Close()

	var overlaps []models.TripOverlap
	for rows.Next() {
		var t models.Trip
		var lat, lon sql.NullFloat64
		var notes sql.NullString
		var startDate, endDate, createdAt, updatedAt string
		var isPublic int
		var overlapDays float64

		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Destination, &lat, &lon,
			&startDate, &endDate, &notes, &isPublic, &createdAt, &updatedAt, &overlapDays); err != nil {
			return nil, fmt.Errorf("overlap scan failed: %w", err)
		}

		t.Lat = floatPtr(lat)
		t.Lon = floatPtr(lon)
		t.StartDate = parseTime(startDate)
		t.EndDate = parseTime(endDate)
		t.Notes = strPtr(notes)
		t.IsPublic = isPublic == 1
		t.CreatedAt = parseTime(createdAt)
		t.UpdatedAt = parseTime(updatedAt)

		overlaps = append(overlaps, models.TripOverlap{
			Trip:        t,
			Destination: t.Destination,
			OverlapDays: int(overlapDays),
		})
	}
	return overlaps, rows.Err()
}

func scanTrip(scan func(dest ...any) error) (*models.Trip, error) {
	var t models.Trip
	var lat, lon sql.NullFloat64
	var notes sql.NullString
	var startDate, endDate, createdAt, updatedAt string
	var isPublic int

	err := scan(&t.ID, &t.UserID, &t.Title, &t.Destination, &lat, &lon,
		&startDate, &endDate, &notes, &isPublic, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Lat = floatPtr(lat)
	t.Lon = floatPtr(lon)
	t.StartDate = parseTime(startDate)
	t.EndDate = parseTime(endDate)
	t.Notes = strPtr(notes)
	t.IsPublic = isPublic == 1
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
