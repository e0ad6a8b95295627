package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
)

const complaintColumns = `c.id, c.title, c.description, c.room, c.category, c.status, c.submitted_by, u.name AS submitted_by_name, c.created_at, c.updated_at`

// ComplaintRepository provides persistence for complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a new complaint repository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// List returns complaints matching the filter, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error) {
	base := "FROM complaints c JOIN users u ON u.id = c.submitted_by WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SubmittedBy != "" {
		conditions = append(conditions, fmt.Sprintf("c.submitted_by = $%d", len(args)+1))
		args = append(args, filter.SubmittedBy)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d", complaintColumns, base, size, offset)
	var complaints []models.Complaint
	if err := r.db.SelectContext(ctx, &complaints, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	return complaints, total, nil
}

// GetByID returns a single complaint.
func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints c JOIN users u ON u.id = c.submitted_by WHERE c.id = $1 LIMIT 1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	return &complaint, nil
}

// Create inserts a new complaint row.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	const query = `INSERT INTO complaints (id, title, description, room, category, status, submitted_by, created_at, updated_at)
		VALUES (:id, :title, :description, :room, :category, :status, :submitted_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, complaint); err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// UpdateStatus sets the resolution status of a complaint.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus) error {
	const query = `UPDATE complaints SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update complaint status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update complaint status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a complaint row.
func (r *ComplaintRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM complaints WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete complaint rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
