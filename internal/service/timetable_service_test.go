package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	"github.com/joyandrew-github/CampusLink-Backend/internal/repository"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
)

// fakeTimetableRepo stores timetables in memory and hands out deep copies so
// that retried mutations observe persisted state, not shared pointers.
type fakeTimetableRepo struct {
	timetables map[string]*models.Timetable
	staleSaves int
	saveCalls  int
	creates    int
}

func newFakeTimetableRepo() *fakeTimetableRepo {
	return &fakeTimetableRepo{timetables: map[string]*models.Timetable{}}
}

func copyTimetable(t *models.Timetable) *models.Timetable {
	raw, _ := json.Marshal(t.Schedule)
	var schedule models.Schedule
	_ = json.Unmarshal(raw, &schedule)
	clone := *t
	clone.Schedule = schedule
	return &clone
}

func (f *fakeTimetableRepo) FindByUser(_ context.Context, userID string) (*models.Timetable, error) {
	stored, ok := f.timetables[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyTimetable(stored), nil
}

func (f *fakeTimetableRepo) Create(_ context.Context, userID string) (*models.Timetable, error) {
	f.creates++
	t := &models.Timetable{
		ID:       "tt-" + userID,
		UserID:   userID,
		Schedule: models.Schedule{},
	}
	f.timetables[userID] = copyTimetable(t)
	return t, nil
}

func (f *fakeTimetableRepo) Save(_ context.Context, timetable *models.Timetable) error {
	f.saveCalls++
	if f.staleSaves > 0 {
		f.staleSaves--
		return repository.ErrStaleRevision
	}
	timetable.Revision++
	f.timetables[timetable.UserID] = copyTimetable(timetable)
	return nil
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func newTimetableService(repo timetableRepository) *TimetableService {
	return NewTimetableService(repo, nil, nil, zap.NewNop(), 3)
}

func addRequest(day, start, end string) AddClassRequest {
	return AddClassRequest{
		WeekIndex: 0,
		Day:       day,
		Subject:   "Algorithms",
		Professor: "Dr. Rao",
		StartTime: start,
		EndTime:   end,
		Room:      "CS-101",
		Type:      "Lecture",
		Date:      futureDate(),
	}
}

func TestAddClassCreatesTimetableOnDemand(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)

	result, err := svc.AddClass(context.Background(), studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	require.Equal(t, 1, repo.creates)

	require.Len(t, result.Schedule, 1)
	sessions := result.Schedule[0].Monday
	require.Len(t, sessions, 1)
	assert.NotEmpty(t, sessions[0].ID)
	assert.Equal(t, models.ClassStatusScheduled, sessions[0].Status)
	assert.Equal(t, "Algorithms", sessions[0].Subject)
}

func TestAddClassGrowsWeeksToIndex(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)

	req := addRequest("Friday", "14:00", "15:00")
	req.WeekIndex = 5

	result, err := svc.AddClass(context.Background(), studentClaims("s1"), req)
	require.NoError(t, err)
	require.Len(t, result.Schedule, 6)
	assert.Len(t, result.Schedule[5].Friday, 1)
	assert.Empty(t, result.Schedule[4].Friday)
}

func TestAddClassDisjointEitherOrder(t *testing.T) {
	for name, order := range map[string][2][2]string{
		"earlier first": {{"09:00", "10:00"}, {"11:00", "12:00"}},
		"later first":   {{"11:00", "12:00"}, {"09:00", "10:00"}},
	} {
		t.Run(name, func(t *testing.T) {
			repo := newFakeTimetableRepo()
			svc := newTimetableService(repo)
			ctx := context.Background()

			_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", order[0][0], order[0][1]))
			require.NoError(t, err)
			result, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", order[1][0], order[1][1]))
			require.NoError(t, err)
			assert.Len(t, result.Schedule[0].Monday, 2)
		})
	}
}

func TestAddClassOverlapConflicts(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "11:00"))
	require.NoError(t, err)

	cases := map[string][2]string{
		"starts inside":  {"10:00", "12:00"},
		"ends inside":    {"08:00", "10:00"},
		"contains":       {"08:00", "12:00"},
		"contained":      {"09:30", "10:30"},
		"identical span": {"09:00", "11:00"},
	}
	for name, span := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", span[0], span[1]))
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestAddClassTouchingBoundaryAllowed(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	result, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "10:00", "11:00"))
	require.NoError(t, err)
	assert.Len(t, result.Schedule[0].Monday, 2)
}

func TestAddClassSameTimesDifferentDays(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.AddClass(ctx, studentClaims("s1"), addRequest("Tuesday", "09:00", "10:00"))
	require.NoError(t, err)
}

func TestAddClassDateValidation(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	req := addRequest("Monday", "09:00", "10:00")
	req.Date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, err := svc.AddClass(ctx, studentClaims("s1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.Date = time.Now().Format("2006-01-02")
	_, err = svc.AddClass(ctx, studentClaims("s1"), req)
	assert.NoError(t, err)

	req2 := addRequest("Tuesday", "09:00", "10:00")
	req2.Date = "2025/01/01"
	_, err = svc.AddClass(ctx, studentClaims("s1"), req2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddClassTimeFormat(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	// single digit hour is accepted
	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "9:00", "9:50"))
	assert.NoError(t, err)

	for _, bad := range []string{"25:00", "12:60", "0900", "nine"} {
		req := addRequest("Tuesday", bad, "10:00")
		_, err := svc.AddClass(ctx, studentClaims("s1"), req)
		require.Error(t, err, bad)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestAddClassInvalidPayload(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	req := addRequest("Someday", "09:00", "10:00")
	_, err := svc.AddClass(ctx, studentClaims("s1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = addRequest("Monday", "09:00", "10:00")
	req.Type = "Workshop"
	_, err = svc.AddClass(ctx, studentClaims("s1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = addRequest("Monday", "09:00", "10:00")
	req.WeekIndex = -1
	_, err = svc.AddClass(ctx, studentClaims("s1"), req)
	require.Error(t, err)
}

func TestAddClassRoleEnforcement(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)

	_, err := svc.AddClass(context.Background(), adminClaims("a1"), addRequest("Monday", "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.AddClass(context.Background(), nil, addRequest("Monday", "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestEditClassReplacesInPlaceAndResetsStatus(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	first, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "11:00", "12:00"))
	require.NoError(t, err)

	target := first.Schedule[0].Monday[0]
	_, err = svc.UpdateClassStatus(ctx, adminClaims("a1"), UpdateClassStatusRequest{
		StudentID: "s1",
		WeekIndex: 0,
		Day:       "Monday",
		ID:        target.ID,
		Status:    "cancelled",
	})
	require.NoError(t, err)

	edited, err := svc.EditClass(ctx, studentClaims("s1"), EditClassRequest{
		WeekIndex: 0,
		Day:       "Monday",
		ID:        target.ID,
		Subject:   "Databases",
		Professor: "Dr. Iyer",
		StartTime: "09:30",
		EndTime:   "10:30",
		Room:      "CS-202",
		Type:      "Lab",
		Date:      futureDate(),
	})
	require.NoError(t, err)

	sessions := edited.Schedule[0].Monday
	require.Len(t, sessions, 2)
	assert.Equal(t, target.ID, sessions[0].ID)
	assert.Equal(t, "Databases", sessions[0].Subject)
	assert.Equal(t, "09:30", sessions[0].StartTime)
	assert.Equal(t, models.ClassStatusScheduled, sessions[0].Status)
}

func TestEditClassNoSelfConflict(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	added, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	id := added.Schedule[0].Monday[0].ID

	// same slot, only room changes
	_, err = svc.EditClass(ctx, studentClaims("s1"), EditClassRequest{
		WeekIndex: 0,
		Day:       "Monday",
		ID:        id,
		Subject:   "Algorithms",
		Professor: "Dr. Rao",
		StartTime: "09:00",
		EndTime:   "10:00",
		Room:      "CS-303",
		Type:      "Lecture",
		Date:      futureDate(),
	})
	assert.NoError(t, err)
}

func TestEditClassConflictsWithOthers(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	added, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "11:00", "12:00"))
	require.NoError(t, err)

	id := added.Schedule[0].Monday[0].ID
	_, err = svc.EditClass(ctx, studentClaims("s1"), EditClassRequest{
		WeekIndex: 0,
		Day:       "Monday",
		ID:        id,
		Subject:   "Algorithms",
		Professor: "Dr. Rao",
		StartTime: "11:30",
		EndTime:   "12:30",
		Room:      "CS-101",
		Type:      "Lecture",
		Date:      futureDate(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEditClassUnknownIDNotFound(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.EditClass(ctx, studentClaims("s1"), EditClassRequest{
		WeekIndex: 0,
		Day:       "Monday",
		ID:        "missing",
		Subject:   "Databases",
		Professor: "Dr. Iyer",
		StartTime: "13:00",
		EndTime:   "14:00",
		Room:      "CS-202",
		Type:      "Lab",
		Date:      futureDate(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteClassRemovesSession(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	added, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	id := added.Schedule[0].Monday[0].ID

	result, err := svc.DeleteClass(ctx, studentClaims("s1"), DeleteClassRequest{WeekIndex: 0, Day: "Monday", ID: id})
	require.NoError(t, err)
	assert.Empty(t, result.Schedule[0].Monday)
}

func TestDeleteClassMissingIDIsNoOp(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)

	result, err := svc.DeleteClass(ctx, studentClaims("s1"), DeleteClassRequest{WeekIndex: 0, Day: "Monday", ID: "missing"})
	require.NoError(t, err)
	assert.Len(t, result.Schedule[0].Monday, 1)
}

func TestUpdateClassStatusAdminOnly(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	added, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	id := added.Schedule[0].Monday[0].ID

	req := UpdateClassStatusRequest{StudentID: "s1", WeekIndex: 0, Day: "Monday", ID: id, Status: "cancelled"}

	_, err = svc.UpdateClassStatus(ctx, studentClaims("s1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	result, err := svc.UpdateClassStatus(ctx, adminClaims("a1"), req)
	require.NoError(t, err)
	session := result.Schedule[0].Monday[0]
	assert.Equal(t, models.ClassStatusCancelled, session.Status)
	assert.Equal(t, "Algorithms", session.Subject)
}

func TestUpdateClassStatusUnknownTargets(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	added, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)
	id := added.Schedule[0].Monday[0].ID

	cases := map[string]UpdateClassStatusRequest{
		"unknown student": {StudentID: "ghost", WeekIndex: 0, Day: "Monday", ID: id, Status: "cancelled"},
		"unknown week":    {StudentID: "s1", WeekIndex: 3, Day: "Monday", ID: id, Status: "cancelled"},
		"unknown class":   {StudentID: "s1", WeekIndex: 0, Day: "Monday", ID: "missing", Status: "cancelled"},
		"wrong day":       {StudentID: "s1", WeekIndex: 0, Day: "Tuesday", ID: id, Status: "cancelled"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateClassStatus(ctx, adminClaims("a1"), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
		})
	}

	_, err = svc.UpdateClassStatus(ctx, adminClaims("a1"), UpdateClassStatusRequest{
		StudentID: "s1", WeekIndex: 0, Day: "Monday", ID: id, Status: "done",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMutateRetriesOnStaleRevision(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)

	repo.staleSaves = 2
	repo.saveCalls = 0
	_, err = svc.AddClass(ctx, studentClaims("s1"), addRequest("Tuesday", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, 3, repo.saveCalls)
}

func TestMutateGivesUpAfterRetryBudget(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)

	repo.staleSaves = 10
	_, err = svc.AddClass(ctx, studentClaims("s1"), addRequest("Tuesday", "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGetTimetable(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTimetableService(repo)
	ctx := context.Background()

	_, err := svc.GetTimetable(ctx, studentClaims("s1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.AddClass(ctx, studentClaims("s1"), addRequest("Monday", "09:00", "10:00"))
	require.NoError(t, err)

	result, err := svc.GetTimetable(ctx, studentClaims("s1"))
	require.NoError(t, err)
	assert.Len(t, result.Schedule[0].Monday, 1)
}

func TestHasTimeConflictLexicalComparison(t *testing.T) {
	existing := []models.ClassSession{{ID: "a", StartTime: "09:00", EndTime: "10:00"}}

	assert.False(t, hasTimeConflict(existing, models.ClassSession{StartTime: "10:00", EndTime: "11:00"}, ""))
	assert.False(t, hasTimeConflict(existing, models.ClassSession{StartTime: "08:00", EndTime: "09:00"}, ""))
	assert.True(t, hasTimeConflict(existing, models.ClassSession{StartTime: "09:59", EndTime: "10:01"}, ""))
	assert.True(t, hasTimeConflict(existing, models.ClassSession{StartTime: "09:00", EndTime: "10:00"}, ""))
	assert.False(t, hasTimeConflict(existing, models.ClassSession{ID: "x", StartTime: "09:00", EndTime: "10:00"}, "a"))
}
