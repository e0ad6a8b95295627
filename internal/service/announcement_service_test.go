package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
)

type fakeAnnouncementRepo struct {
	announcements map[string]*models.Announcement
	lastFilter    models.AnnouncementFilter
}

func newFakeAnnouncementRepo() *fakeAnnouncementRepo {
	return &fakeAnnouncementRepo{announcements: map[string]*models.Announcement{}}
}

func (f *fakeAnnouncementRepo) List(_ context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	f.lastFilter = filter
	var out []models.Announcement
	for _, a := range f.announcements {
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeAnnouncementRepo) GetByID(_ context.Context, id string) (*models.Announcement, error) {
	if a, ok := f.announcements[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAnnouncementRepo) Create(_ context.Context, announcement *models.Announcement) error {
	clone := *announcement
	f.announcements[announcement.ID] = &clone
	return nil
}

func (f *fakeAnnouncementRepo) Update(_ context.Context, announcement *models.Announcement) error {
	if _, ok := f.announcements[announcement.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *announcement
	f.announcements[announcement.ID] = &clone
	return nil
}

func (f *fakeAnnouncementRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.announcements[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.announcements, id)
	return nil
}

func newAnnouncementServiceForTest(repo *fakeAnnouncementRepo) *AnnouncementService {
	return NewAnnouncementService(repo, nil, zap.NewNop())
}

func TestAnnouncementCreateAdminOnly(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newAnnouncementServiceForTest(repo)
	ctx := context.Background()

	req := CreateAnnouncementRequest{
		Title:       "Tech fest",
		Description: "Annual technical festival",
		Category:    "event",
		Venue:       "Main auditorium",
		Date:        "2026-10-12",
	}

	_, err := svc.Create(ctx, studentClaims("s1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	created, err := svc.Create(ctx, adminClaims("a1"), req)
	require.NoError(t, err)
	assert.Equal(t, "a1", created.PostedBy)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.Date)
}

func TestAnnouncementCreateRejectsBadDate(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newAnnouncementServiceForTest(repo)

	_, err := svc.Create(context.Background(), adminClaims("a1"), CreateAnnouncementRequest{
		Title:       "Tech fest",
		Description: "Annual technical festival",
		Category:    "event",
		Date:        "12-10-2026",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementUpdateKeepsUnsetFields(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newAnnouncementServiceForTest(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminClaims("a1"), CreateAnnouncementRequest{
		Title:       "Tech fest",
		Description: "Annual technical festival",
		Category:    "event",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, adminClaims("a1"), created.ID, UpdateAnnouncementRequest{Venue: "Block B"})
	require.NoError(t, err)
	assert.Equal(t, "Tech fest", updated.Title)
	assert.Equal(t, "Block B", updated.Venue)

	_, err = svc.Update(ctx, adminClaims("a1"), "missing", UpdateAnnouncementRequest{Title: "X"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementListCategoryFilter(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newAnnouncementServiceForTest(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminClaims("a1"), CreateAnnouncementRequest{Title: "A", Description: "A", Category: "event"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminClaims("a1"), CreateAnnouncementRequest{Title: "B", Description: "B", Category: "exam"})
	require.NoError(t, err)

	rows, pagination, err := svc.List(ctx, AnnouncementListRequest{Category: "exam", SortOrder: "oldest"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "exam", rows[0].Category)
	assert.Equal(t, "oldest", repo.lastFilter.SortOrder)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}

func TestAnnouncementDelete(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	svc := newAnnouncementServiceForTest(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminClaims("a1"), CreateAnnouncementRequest{Title: "A", Description: "A", Category: "event"})
	require.NoError(t, err)

	err = svc.Delete(ctx, studentClaims("s1"), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, adminClaims("a1"), created.ID))

	err = svc.Delete(ctx, adminClaims("a1"), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
