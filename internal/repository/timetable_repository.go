package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
)

// ErrStaleRevision is returned when a save races a concurrent mutation of the
// same timetable. Callers reload and replay.
var ErrStaleRevision = errors.New("timetable revision mismatch")

// TimetableRepository persists the one-document-per-user timetable.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// FindByUser returns the timetable owned by userID.
func (r *TimetableRepository) FindByUser(ctx context.Context, userID string) (*models.Timetable, error) {
	const query = `SELECT id, user_id, schedule, revision, created_at, updated_at FROM timetables WHERE user_id = $1 LIMIT 1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timetable by user: %w", err)
	}
	return &timetable, nil
}

// Create inserts an empty timetable for userID.
func (r *TimetableRepository) Create(ctx context.Context, userID string) (*models.Timetable, error) {
	now := time.Now().UTC()
	timetable := &models.Timetable{
		ID:        uuid.NewString(),
		UserID:    userID,
		Schedule:  models.Schedule{},
		Revision:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const query = `INSERT INTO timetables (id, user_id, schedule, revision, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, timetable.ID, timetable.UserID, timetable.Schedule, timetable.Revision, timetable.CreatedAt, timetable.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create timetable: %w", err)
	}
	return timetable, nil
}

// Save overwrites the schedule document, guarded by the revision the caller
// loaded. Zero rows updated means another writer got there first.
func (r *TimetableRepository) Save(ctx context.Context, timetable *models.Timetable) error {
	const query = `UPDATE timetables SET schedule = $1, revision = revision + 1, updated_at = $2 WHERE id = $3 AND revision = $4`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, timetable.Schedule, now, timetable.ID, timetable.Revision)
	if err != nil {
		return fmt.Errorf("save timetable: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save timetable rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleRevision
	}
	timetable.Revision++
	timetable.UpdatedAt = now
	return nil
}
