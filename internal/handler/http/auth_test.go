package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ad-tech1009/Teams-ToDo/internal/auth"
	"github.com/Ad-tech1009/Teams-ToDo/internal/domain"
	"github.com/Ad-tech1009/Teams-ToDo/internal/event"
	"github.com/Ad-tech1009/Teams-ToDo/internal/service"
	apperrors "github.com/Ad-tech1009/Teams-ToDo/pkg/errors"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/health"
	pkgkafka "github.com/Ad-tech1009/Teams-ToDo/pkg/kafka"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/middleware"
)

// --- Mock repositories ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.UserRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserRef), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepo) ListByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *mockTaskRepo) UpdateFields(ctx context.Context, id string, fields map[domain.TaskField]any) (*domain.Task, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test wiring ---

var testTokens = auth.NewTokenManager(
	"handler-test-access-secret-value",
	"handler-test-refresh-secret-value",
	15*time.Minute,
	7*24*time.Hour,
)

func newTestRouter(userRepo *mockUserRepo, taskRepo *mockTaskRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	producer := event.NewProducer(kafkaProducer, logger)

	userService := service.NewUserService(userRepo, testTokens, producer, logger)
	taskService := service.NewTaskService(taskRepo, userRepo, producer, logger)

	return NewRouter(
		userService,
		taskService,
		testTokens,
		health.NewHandler(),
		logger,
		middleware.CORSConfig{AllowedOrigins: []string{"*"}},
		CookieConfig{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour},
	)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func accessCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	token, err := testTokens.GenerateAccessToken(userID)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.AccessTokenCookie, Value: token}
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testPasswordHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}

// --- Signup ---

func TestSignup_SetsCookiesAndReturns201(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	cookies := rec.Result().Cookies()
	access := cookieByName(cookies, middleware.AccessTokenCookie)
	refresh := cookieByName(cookies, RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, refreshCookiePath, refresh.Path)

	// The returned user never exposes the password hash.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSignup_DuplicateEmailReturns400(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignup_ValidationErrorListsFields(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email": "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Fields, "Name")
	assert.Contains(t, body.Error.Fields, "Email")
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	stored := &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: testPasswordHash("password123"),
	}
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, cookieByName(rec.Result().Cookies(), middleware.AccessTokenCookie))
}

func TestLogin_UnknownEmailReturns404(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "password123",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin_WrongPasswordReturns400(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	stored := &domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: testPasswordHash("password123"),
	}
	userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Refresh ---

func TestRefresh_WithCookie(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	refreshToken, err := testTokens.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: refreshToken})

	assert.Equal(t, http.StatusOK, rec.Code)

	access := cookieByName(rec.Result().Cookies(), middleware.AccessTokenCookie)
	require.NotNil(t, access)
	userID, err := testTokens.ValidateAccessToken(access.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRefresh_WithBody(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	refreshToken, err := testTokens.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_AccessTokenRejectedWith403(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	// An access token is not a refresh token.
	accessToken, err := testTokens.GenerateAccessToken("user-1")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: accessToken})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefresh_MissingTokenReturns403(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- Logout ---

func TestLogout_ClearsCookies(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	access := cookieByName(cookies, middleware.AccessTokenCookie)
	refresh := cookieByName(cookies, RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Empty(t, access.Value)
	assert.Less(t, access.MaxAge, 0)
	assert.Less(t, refresh.MaxAge, 0)
}

// --- Session middleware via the router ---

func TestProtectedRoute_NoTokenReturns401(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoute_BadTokenReturns403(t *testing.T) {
	router := newTestRouter(new(mockUserRepo), new(mockTaskRepo))

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", nil,
		&http.Cookie{Name: middleware.AccessTokenCookie, Value: "tampered"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetMe_ReturnsProfile(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	stored := &domain.User{ID: "user-1", Name: "Alice", Email: "alice@example.com"}
	userRepo.On("GetByID", mock.Anything, "user-1").Return(stored, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", nil, accessCookie(t, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data domain.User `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Alice", body.Data.Name)
}

func TestListUsers_ReturnsRefs(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	refs := []domain.UserRef{{ID: "u-1", Name: "Alice", Email: "alice@example.com"}}
	userRepo.On("List", mock.Anything).Return(refs, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users", nil, accessCookie(t, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestUpdateMe_AppliesPartialUpdate(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := newTestRouter(userRepo, new(mockTaskRepo))

	stored := &domain.User{ID: "user-1", Name: "Alice"}
	userRepo.On("GetByID", mock.Anything, "user-1").Return(stored, nil)
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/users/me", map[string]string{
		"name": "Alice Smith",
	}, accessCookie(t, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice Smith")
}
