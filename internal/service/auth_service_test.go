package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
)

type fakeAuthRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	usersByRollNo map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	auditLogs     []models.AuditLog
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		usersByRollNo: map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (f *fakeAuthRepo) addUser(user *models.User) {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
	if user.RollNo != nil {
		f.usersByRollNo[*user.RollNo] = user
	}
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByRollNo(_ context.Context, rollNo string) (*models.User, error) {
	if u, ok := f.usersByRollNo[rollNo]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) Create(_ context.Context, user *models.User) error {
	f.addUser(user)
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	for _, token := range f.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := f.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, token := range f.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, *log)
	return nil
}

func newAuthServiceForTest(repo *fakeAuthRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), AuthServiceConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		AdminSecretKey:     "campus-admin-key",
	})
}

func seedStudent(t *testing.T, repo *fakeAuthRepo, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	roll := "21CS001"
	user := &models.User{
		ID:           "user-1",
		Name:         "Asha",
		Email:        "asha@campus.edu",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		RollNo:       &roll,
		Active:       true,
	}
	repo.addUser(user)
	return user
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeAuthRepo()
	seedStudent(t, repo, "secret123")
	svc := newAuthServiceForTest(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@campus.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "user-1", res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	require.NotEmpty(t, repo.auditLogs)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeAuthRepo()
	seedStudent(t, repo, "secret123")
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@campus.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@campus.edu", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newFakeAuthRepo()
	user := seedStudent(t, repo, "secret123")
	user.Active = false
	svc := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@campus.edu", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newFakeAuthRepo()
	seedStudent(t, repo, "secret123")
	svc := newAuthServiceForTest(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@campus.edu", Password: "secret123"})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)

	// the used token is revoked, replay fails
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenExpired(t *testing.T) {
	repo := newFakeAuthRepo()
	seedStudent(t, repo, "secret123")
	svc := newAuthServiceForTest(repo)

	repo.refreshTokens["old"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRegisterAdminSecretKey(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthServiceForTest(repo)

	req := models.RegisterAdminRequest{
		Name:           "Dean",
		Email:          "dean@campus.edu",
		PhoneNo:        "9000000000",
		Password:       "secret123",
		AdminSecretKey: "wrong-key",
	}
	_, err := svc.RegisterAdmin(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	req.AdminSecretKey = "campus-admin-key"
	user, err := svc.RegisterAdmin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.Active)
}

func TestRegisterStudentDuplicateRollNo(t *testing.T) {
	repo := newFakeAuthRepo()
	seedStudent(t, repo, "secret123")
	svc := newAuthServiceForTest(repo)

	req := models.RegisterStudentRequest{
		Name:     "Vikram",
		Email:    "vikram@campus.edu",
		PhoneNo:  "9000000001",
		Password: "secret123",
		RollNo:   "21CS001",
		Dept:     "CSE",
		Year:     "3",
	}
	_, err := svc.RegisterStudent(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	req.RollNo = "21CS002"
	user, err := svc.RegisterStudent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	require.NotNil(t, user.RollNo)
	assert.Equal(t, "21CS002", *user.RollNo)
}

func TestRegisterStudentDuplicateEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	seedStudent(t, repo, "secret123")
	svc := newAuthServiceForTest(repo)

	req := models.RegisterStudentRequest{
		Name:     "Asha Again",
		Email:    "asha@campus.edu",
		PhoneNo:  "9000000002",
		Password: "secret123",
		RollNo:   "21CS099",
		Dept:     "CSE",
		Year:     "2",
	}
	_, err := svc.RegisterStudent(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newAuthServiceForTest(repo)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
