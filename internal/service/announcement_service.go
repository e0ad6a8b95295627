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

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// CreateAnnouncementRequest describes create payload.
type CreateAnnouncementRequest struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Category     string `json:"category" validate:"required"`
	Image        string `json:"image"`
	Venue        string `json:"venue"`
	StartTime    string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime      string `json:"end_time" validate:"omitempty,hhmm"`
	Date         string `json:"date"`
	RegisterLink string `json:"register_link"`
}

// UpdateAnnouncementRequest describes update payload.
type UpdateAnnouncementRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Image        string `json:"image"`
	Venue        string `json:"venue"`
	StartTime    string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime      string `json:"end_time" validate:"omitempty,hhmm"`
	Date         string `json:"date"`
	RegisterLink string `json:"register_link"`
}

// AnnouncementListRequest describes filters for listing announcements.
type AnnouncementListRequest struct {
	Category  string `json:"category"`
	SortOrder string `json:"sort_by"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timePattern.MatchString(fl.Field().String())
	})
	return &AnnouncementService{repo: repo, validator: validate, logger: logger}
}

// List returns announcements with pagination.
func (s *AnnouncementService) List(ctx context.Context, req AnnouncementListRequest) ([]models.Announcement, *models.Pagination, error) {
	filter := models.AnnouncementFilter{
		Category:  req.Category,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns an announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return announcement, nil
}

// Create inserts a new announcement. Admin only.
func (s *AnnouncementService) Create(ctx context.Context, actor *models.JWTClaims, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	date, err := parseAnnouncementDate(req.Date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	announcement := &models.Announcement{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Image:        req.Image,
		Venue:        req.Venue,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Date:         date,
		RegisterLink: req.RegisterLink,
		PostedBy:     actor.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	s.logger.Info("announcement created", zap.String("announcement_id", announcement.ID), zap.String("user_id", actor.UserID))

	created, err := s.repo.GetByID(ctx, announcement.ID)
	if err != nil {
		return announcement, nil
	}
	return created, nil
}

// Update mutates announcement fields. Admin only. Empty fields keep their
// previous values.
func (s *AnnouncementService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateAnnouncementRequest) (*models.Announcement, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	announcement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		announcement.Title = req.Title
	}
	if req.Description != "" {
		announcement.Description = req.Description
	}
	if req.Category != "" {
		announcement.Category = req.Category
	}
	if req.Image != "" {
		announcement.Image = req.Image
	}
	if req.Venue != "" {
		announcement.Venue = req.Venue
	}
	if req.StartTime != "" {
		announcement.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		announcement.EndTime = req.EndTime
	}
	if req.Date != "" {
		date, err := parseAnnouncementDate(req.Date)
		if err != nil {
			return nil, err
		}
		announcement.Date = date
	}
	if req.RegisterLink != "" {
		announcement.RegisterLink = req.RegisterLink
	}
	announcement.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	return announcement, nil
}

// Delete removes an announcement. Admin only.
func (s *AnnouncementService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}

func parseAnnouncementDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, use YYYY-MM-DD")
	}
	return &parsed, nil
}
