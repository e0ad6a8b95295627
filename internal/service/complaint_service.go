package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
)

type complaintRepository interface {
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error)
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	Create(ctx context.Context, complaint *models.Complaint) error
	UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus) error
	Delete(ctx context.Context, id string) error
}

// CreateComplaintRequest describes the complaint submission payload.
type CreateComplaintRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Room        string `json:"room" validate:"required"`
}

// ComplaintListRequest describes listing filters.
type ComplaintListRequest struct {
	Status   string `json:"status"`
	Category string `json:"category"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// ComplaintService handles complaint workflows with AI-assisted
// categorization at submission time.
type ComplaintService struct {
	repo        complaintRepository
	categorizer Categorizer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewComplaintService constructs the service.
func NewComplaintService(repo complaintRepository, categorizer Categorizer, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{repo: repo, categorizer: categorizer, validator: validate, logger: logger}
}

// Create submits a complaint. Students only; the category comes from the
// classifier, falling back to "other" when the model is unavailable.
func (s *ComplaintService) Create(ctx context.Context, actor *models.JWTClaims, req CreateComplaintRequest) (*models.Complaint, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid complaint payload")
	}

	category := models.ComplaintCategoryFallback
	if s.categorizer != nil {
		category = s.categorizer.Categorize(ctx, req.Description)
	}

	now := time.Now().UTC()
	complaint := &models.Complaint{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Room:        req.Room,
		Category:    category,
		Status:      models.ComplaintStatusPending,
		SubmittedBy: actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, complaint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create complaint")
	}

	s.logger.Info("complaint created",
		zap.String("complaint_id", complaint.ID),
		zap.String("user_id", actor.UserID),
		zap.String("category", category),
	)

	created, err := s.repo.GetByID(ctx, complaint.ID)
	if err != nil {
		return complaint, nil
	}
	return created, nil
}

// List returns complaints; students see only their own submissions.
func (s *ComplaintService) List(ctx context.Context, actor *models.JWTClaims, req ComplaintListRequest) ([]models.Complaint, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	filter := models.ComplaintFilter{
		Status:   req.Status,
		Category: req.Category,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if actor.Role == models.RoleStudent {
		filter.SubmittedBy = actor.UserID
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list complaints")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a complaint; students may only view their own.
func (s *ComplaintService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Complaint, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	complaint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load complaint")
	}
	if actor.Role == models.RoleStudent && complaint.SubmittedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to view this complaint")
	}
	return complaint, nil
}

// UpdateStatus sets the resolution status. Admin only.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id, status string) (*models.Complaint, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	parsed := models.ComplaintStatus(status)
	if !parsed.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid complaint status")
	}
	if err := s.repo.UpdateStatus(ctx, id, parsed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update complaint status")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a complaint; the submitting student or an admin may delete.
func (s *ComplaintService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	complaint, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if actor.Role == models.RoleStudent && complaint.SubmittedBy != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "not authorized to delete this complaint")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete complaint")
	}
	return nil
}
