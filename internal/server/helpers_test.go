package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storelane-dev/storelane/internal/auth"
	"github.com/storelane-dev/storelane/internal/config"
	"github.com/storelane-dev/storelane/internal/models"
	"github.com/storelane-dev/storelane/internal/tasks"
)

// testOTPCode is the deterministic code every test server issues
const testOTPCode = "123456"

// fakeEnqueuer records enqueued tasks instead of talking to Redis
type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "fake", Type: task.Type()}, nil
}

// lastOTPCode returns the code carried by the most recently enqueued email task
func (f *fakeEnqueuer) lastOTPCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.tasks, "expected an enqueued OTP email task")
	task := f.tasks[len(f.tasks)-1]
	require.Equal(t, tasks.TypeSendOTPEmail, task.Type())
	payload, err := tasks.ParseSendOTPEmailPayload(task)
	require.NoError(t, err)
	return payload.Code
}

func newTestServer(t *testing.T) (*Server, *fakeEnqueuer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and shared
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Address:    ":0",
			CORSOrigin: "http://localhost:5173",
		},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			ResetTicketTTL: 15 * time.Minute,
		},
		OTP: config.OTPConfig{
			TTL:            10 * time.Minute,
			MaxAttempts:    5,
			ResendInterval: time.Minute,
		},
	}

	enqueuer := &fakeEnqueuer{}
	srv := newServer(db, cfg, zerolog.Nop(), enqueuer, "test")
	srv.otpService.SetGenerator(func() (string, error) { return testOTPCode, nil })

	t.Cleanup(func() { _ = sqlDB.Close() })

	return srv, enqueuer
}

// doRequest performs one request against the router. body may be nil;
// token, when non-empty, becomes the bearer credential.
func doRequest(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// errorMessage extracts the "error" field of a failure response
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	decodeJSON(t, w, &payload)
	return payload["error"]
}

// createTestUser seeds a verified account and returns it
func createTestUser(t *testing.T, srv *Server, email, password string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:           email,
		PasswordHash:    hash,
		FirstName:       "Test",
		LastName:        "User",
		IsEmailVerified: true,
	}
	require.NoError(t, srv.db.Create(user).Error)
	return user
}

// loginTestUser seeds an account and returns a valid session token for it
func loginTestUser(t *testing.T, srv *Server, email, password string) string {
	t.Helper()

	user := createTestUser(t, srv, email, password)
	token, err := srv.tokens.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	return token
}
