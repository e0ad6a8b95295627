package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	"github.com/joyandrew-github/CampusLink-Backend/internal/repository"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
)

// timePattern accepts 24-hour HH:mm, leading zero optional on the hour.
var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

type timetableRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.Timetable, error)
	Create(ctx context.Context, userID string) (*models.Timetable, error)
	Save(ctx context.Context, timetable *models.Timetable) error
}

// AddClassRequest describes payload for adding a class session.
type AddClassRequest struct {
	WeekIndex int    `json:"weekIndex" validate:"gte=0"`
	Day       string `json:"day" validate:"required,weekday"`
	Subject   string `json:"subject" validate:"required"`
	Professor string `json:"professor" validate:"required"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	Room      string `json:"room" validate:"required"`
	Type      string `json:"type" validate:"required,classtype"`
	Date      string `json:"date" validate:"required"`
}

// EditClassRequest replaces a session identified by ID in place.
type EditClassRequest struct {
	WeekIndex int    `json:"weekIndex" validate:"gte=0"`
	Day       string `json:"day" validate:"required,weekday"`
	ID        string `json:"id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Professor string `json:"professor" validate:"required"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	Room      string `json:"room" validate:"required"`
	Type      string `json:"type" validate:"required,classtype"`
	Date      string `json:"date" validate:"required"`
}

// UpdateClassStatusRequest mutates a session's status on a target student's
// timetable. Admins address the student explicitly.
type UpdateClassStatusRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	WeekIndex int    `json:"weekIndex" validate:"gte=0"`
	Day       string `json:"day" validate:"required,weekday"`
	ID        string `json:"id" validate:"required"`
	Status    string `json:"status" validate:"required,classstatus"`
}

// DeleteClassRequest removes a session from the caller's timetable.
type DeleteClassRequest struct {
	WeekIndex int    `json:"weekIndex" validate:"gte=0"`
	Day       string `json:"day" validate:"required,weekday"`
	ID        string `json:"id" validate:"required"`
}

// TimetableService owns the weekly schedule document and all of its
// validation and mutation rules.
type TimetableService struct {
	repo        timetableRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	saveRetries int
}

// NewTimetableService instantiates TimetableService and registers the
// timetable validation rules on the shared validator.
func NewTimetableService(repo timetableRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, saveRetries int) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if saveRetries < 1 {
		saveRetries = 3
	}
	svc := &TimetableService{repo: repo, cache: cache, validator: validate, logger: logger, saveRetries: saveRetries}
	svc.validator.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.IsWeekday(fl.Field().String())
	})
	svc.validator.RegisterValidation("classtype", func(fl validator.FieldLevel) bool {
		return models.ClassType(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("classstatus", func(fl validator.FieldLevel) bool {
		return models.ClassStatus(fl.Field().String()).Valid()
	})
	svc.validator.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timePattern.MatchString(fl.Field().String())
	})
	return svc
}

// hasTimeConflict reports whether candidate overlaps any session in the list,
// optionally skipping one by id (the session being edited). Intervals are
// half-open: a session ending at 10:00 does not clash with one starting then.
// HH:mm strings are compared lexically.
func hasTimeConflict(sessions []models.ClassSession, candidate models.ClassSession, excludeID string) bool {
	for _, existing := range sessions {
		if excludeID != "" && existing.ID == excludeID {
			continue
		}
		if (candidate.StartTime >= existing.StartTime && candidate.StartTime < existing.EndTime) ||
			(candidate.EndTime > existing.StartTime && candidate.EndTime <= existing.EndTime) ||
			(candidate.StartTime <= existing.StartTime && candidate.EndTime >= existing.EndTime) {
			return true
		}
	}
	return false
}

// AddClass appends a new session to the caller's timetable, creating the
// timetable and any missing weeks on demand.
func (s *TimetableService) AddClass(ctx context.Context, actor *models.JWTClaims, req AddClassRequest) (*models.Timetable, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := validateClassDate(req.Date); err != nil {
		return nil, err
	}

	session := models.ClassSession{
		ID:        uuid.NewString(),
		Subject:   req.Subject,
		Professor: req.Professor,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
		Type:      models.ClassType(req.Type),
		Date:      req.Date,
		Status:    models.ClassStatusScheduled,
	}

	timetable, err := s.mutate(ctx, actor.UserID, true, func(t *models.Timetable) error {
		t.Schedule.EnsureWeek(req.WeekIndex)
		week := &t.Schedule[req.WeekIndex]
		sessions := week.Sessions(req.Day)
		if hasTimeConflict(sessions, session, "") {
			return appErrors.Clone(appErrors.ErrConflict, "time conflict with an existing class")
		}
		week.SetSessions(req.Day, append(sessions, session))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("class added",
		zap.String("user_id", actor.UserID),
		zap.String("class_id", session.ID),
		zap.Int("week_index", req.WeekIndex),
		zap.String("day", req.Day),
	)
	return timetable, nil
}

// EditClass replaces the session with matching id in place, preserving its
// position. Editing always resets the status to scheduled.
func (s *TimetableService) EditClass(ctx context.Context, actor *models.JWTClaims, req EditClassRequest) (*models.Timetable, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := validateClassDate(req.Date); err != nil {
		return nil, err
	}

	replacement := models.ClassSession{
		ID:        req.ID,
		Subject:   req.Subject,
		Professor: req.Professor,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
		Type:      models.ClassType(req.Type),
		Date:      req.Date,
		Status:    models.ClassStatusScheduled,
	}

	timetable, err := s.mutate(ctx, actor.UserID, false, func(t *models.Timetable) error {
		if req.WeekIndex >= len(t.Schedule) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable week not found")
		}
		week := &t.Schedule[req.WeekIndex]
		sessions := week.Sessions(req.Day)
		index := -1
		for i, existing := range sessions {
			if existing.ID == req.ID {
				index = i
				break
			}
		}
		if index < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		if hasTimeConflict(sessions, replacement, req.ID) {
			return appErrors.Clone(appErrors.ErrConflict, "time conflict with another class")
		}
		sessions[index] = replacement
		week.SetSessions(req.Day, sessions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("class edited",
		zap.String("user_id", actor.UserID),
		zap.String("class_id", req.ID),
		zap.Int("week_index", req.WeekIndex),
		zap.String("day", req.Day),
	)
	return timetable, nil
}

// UpdateClassStatus mutates only the status field of the addressed session on
// the target student's timetable. Admin only.
func (s *TimetableService) UpdateClassStatus(ctx context.Context, actor *models.JWTClaims, req UpdateClassStatusRequest) (*models.Timetable, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	timetable, err := s.mutate(ctx, req.StudentID, false, func(t *models.Timetable) error {
		if req.WeekIndex >= len(t.Schedule) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable week not found")
		}
		week := &t.Schedule[req.WeekIndex]
		sessions := week.Sessions(req.Day)
		for i := range sessions {
			if sessions[i].ID == req.ID {
				sessions[i].Status = models.ClassStatus(req.Status)
				week.SetSessions(req.Day, sessions)
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("class status updated",
		zap.String("admin_id", actor.UserID),
		zap.String("student_id", req.StudentID),
		zap.String("class_id", req.ID),
		zap.String("status", req.Status),
	)
	return timetable, nil
}

// DeleteClass removes the session with the given id. Deleting a missing id is
// a no-op, unlike edit.
func (s *TimetableService) DeleteClass(ctx context.Context, actor *models.JWTClaims, req DeleteClassRequest) (*models.Timetable, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	timetable, err := s.mutate(ctx, actor.UserID, false, func(t *models.Timetable) error {
		if req.WeekIndex >= len(t.Schedule) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable week not found")
		}
		week := &t.Schedule[req.WeekIndex]
		sessions := week.Sessions(req.Day)
		filtered := make([]models.ClassSession, 0, len(sessions))
		for _, existing := range sessions {
			if existing.ID != req.ID {
				filtered = append(filtered, existing)
			}
		}
		week.SetSessions(req.Day, filtered)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("class deleted",
		zap.String("user_id", actor.UserID),
		zap.String("class_id", req.ID),
		zap.Int("week_index", req.WeekIndex),
		zap.String("day", req.Day),
	)
	return timetable, nil
}

// GetTimetable returns the caller's own timetable.
func (s *TimetableService) GetTimetable(ctx context.Context, actor *models.JWTClaims) (*models.Timetable, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}

	key := timetableCacheKey(actor.UserID)
	if s.cache.Enabled() {
		var cached models.Timetable
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	timetable, err := s.loadForUser(ctx, actor.UserID, false)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, timetable, 0)
	return timetable, nil
}

// GetTimetableForStudent returns a student's timetable for admin inspection
// and exports.
func (s *TimetableService) GetTimetableForStudent(ctx context.Context, studentID string) (*models.Timetable, error) {
	return s.loadForUser(ctx, studentID, false)
}

// mutate runs one load-apply-save cycle, replaying the whole cycle when the
// save loses a revision race. apply sees freshly loaded state on every
// attempt, so conflict checks always run against the latest document.
func (s *TimetableService) mutate(ctx context.Context, userID string, createIfMissing bool, apply func(*models.Timetable) error) (*models.Timetable, error) {
	for attempt := 0; attempt < s.saveRetries; attempt++ {
		timetable, err := s.loadForUser(ctx, userID, createIfMissing)
		if err != nil {
			return nil, err
		}
		if err := apply(timetable); err != nil {
			return nil, err
		}
		err = s.repo.Save(ctx, timetable)
		if err == nil {
			if s.cache.Enabled() {
				s.cache.Invalidate(ctx, timetableCacheKey(userID))
			}
			return timetable, nil
		}
		if !errors.Is(err, repository.ErrStaleRevision) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
		}
		s.logger.Debug("timetable save lost revision race, retrying",
			zap.String("user_id", userID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "timetable was modified concurrently, please retry")
}

func (s *TimetableService) loadForUser(ctx context.Context, userID string, createIfMissing bool) (*models.Timetable, error) {
	timetable, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return timetable, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if !createIfMissing {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	created, err := s.repo.Create(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return created, nil
}

// validateClassDate requires YYYY-MM-DD, today or later (local midnight,
// inclusive of today).
func validateClassDate(raw string) error {
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid date format, use YYYY-MM-DD")
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if parsed.Before(today) {
		return appErrors.Clone(appErrors.ErrValidation, "date must be today or in the future")
	}
	return nil
}

func requireRole(actor *models.JWTClaims, role models.UserRole) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing caller identity")
	}
	if actor.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, "operation not permitted for role "+string(actor.Role))
	}
	return nil
}

func timetableCacheKey(userID string) string {
	return "timetable:" + userID
}
