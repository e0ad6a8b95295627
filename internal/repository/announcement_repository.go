package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
)

const announcementColumns = `a.id, a.title, a.description, a.category, a.image, a.venue, a.start_time, a.end_time, a.date, a.register_link, a.posted_by, u.name AS posted_by_name, a.created_at, a.updated_at`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates a new announcement repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements with optional category filter and sort order.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	base := "FROM announcements a JOIN users u ON u.id = a.posted_by WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "oldest") {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY a.created_at %s LIMIT %d OFFSET %d", announcementColumns, base, order, size, offset)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	return announcements, total, nil
}

// GetByID returns a single announcement.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements a JOIN users u ON u.id = a.posted_by WHERE a.id = $1 LIMIT 1`
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &announcement, nil
}

// Create inserts a new announcement row.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	const query = `INSERT INTO announcements (id, title, description, category, image, venue, start_time, end_time, date, register_link, posted_by, created_at, updated_at)
		VALUES (:id, :title, :description, :category, :image, :venue, :start_time, :end_time, :date, :register_link, :posted_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update persists announcement field changes.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	const query = `UPDATE announcements SET title = :title, description = :description, category = :category, image = :image, venue = :venue, start_time = :start_time, end_time = :end_time, date = :date, register_link = :register_link, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement row.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM announcements WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete announcement rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
