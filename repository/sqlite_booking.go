package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type sqliteBookingRepository struct {
	db *sql.DB
}

func NewSQLiteBookingRepository(db *sql.DB) BookingRepository {
	return &sqliteBookingRepository{db: db}
}

const bookingColumns = `id, gear_id, renter_id, start_date, end_date, status, total_cents, created_at, updated_at`

func (r *sqliteBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (id, gear_id, renter_id, start_date, end_date, status, total_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.GearID, b.RenterID,
		b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"),
		b.Status, b.TotalCents, now, now)
	if err != nil {
		return fmt.Errorf("booking create failed: %w", err)
	}
	return nil
}

func (r *sqliteBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row.Scan)
	if err == sql.ErrNoRows {
		return nil, pkg.Wrap(pkg.ErrNotFound, "booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("booking scan failed: %w", err)
	}
	return b, nil
}

func (r *sqliteBookingRepository) ListByRenter(ctx context.Context, renterID string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE renter_id = ? ORDER BY created_at DESC`, renterID)
	if err != nil {
		return nil, fmt.Errorf("booking list failed: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *sqliteBookingRepository) ListByGear(ctx context.Context, gearID string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE gear_id = ? ORDER BY start_date`, gearID)
	if err != nil {
		return nil, fmt.Errorf("booking list failed: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *sqliteBookingRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.gear_id, b.renter_id, b.start_date, b.end_date, b.status, b.total_cents, b.created_at, b.updated_at
		FROM bookings b
		JOIN gear g ON g.id = b.gear_id
		WHERE g.owner_id = ?
		ORDER BY b.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("booking list failed: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *sqliteBookingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("booking status update failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.Wrap(pkg.ErrNotFound, "booking not found")
	}
	return nil
}

func (r *sqliteBookingRepository) HasOverlap(ctx context.Context, gearID string, start, end time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE gear_id = ?
		  AND status IN (?, ?)
		  AND start_date <= ?
		  AND ? <= end_date`,
		gearID, models.BookingConfirmed, models.BookingActive,
		end.Format("2006-01-02"), start.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("booking overlap check failed: %w", err)
	}
	return count > 0, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("booking scan failed: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(scan func(dest ...any) error) (*models.Booking, error) {
	var b models.Booking
	var startDate, endDate, createdAt, updatedAt string

	err := scan(&b.ID, &b.GearID, &b.RenterID, &startDate, &endDate,
		&b.Status, &b.TotalCents, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	b.StartDate = parseTime(startDate)
	b.EndDate = parseTime(endDate)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}
