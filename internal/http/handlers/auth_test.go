package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quickcook/quickcook/internal/auth"
	"github.com/quickcook/quickcook/internal/domain/user"
	"github.com/quickcook/quickcook/internal/http/handlers"
	"github.com/quickcook/quickcook/internal/repo/postgres"
	"github.com/quickcook/quickcook/internal/security"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsersRepo struct {
	getByEmailFn  func(ctx context.Context, email string) (user.User, error)
	createFn      func(ctx context.Context, username, email, passwordHash string) (user.User, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, email, passwordHash)
	}
	return user.User{}, nil
}

func (f *fakeUsersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if f.emailExistsFn != nil {
		return f.emailExistsFn(ctx, email)
	}
	return false, nil
}

func newTestJWT() *auth.Manager {
	return auth.NewManager("test-secret", 7*24*time.Hour)
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func TestRegisterHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"username":"chef1","email":"chef1@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{
						ID:        "u-1",
						Username:  username,
						Email:     email,
						CreatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_fields",
			body:           `{"email":"chef1@x.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email",
			body: `{"username":"chef1","email":"chef1@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.emailExistsFn = func(ctx context.Context, email string) (bool, error) {
					return true, nil
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "duplicate_email_race",
			body: `{"username":"chef1","email":"chef1@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{}, postgres.ErrEmailAlreadyUsed
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "repo_error",
			body: `{"username":"chef1","email":"chef1@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, newTestJWT())

			r := setupRouter(http.MethodPost, "/api/auth/register", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var resp struct {
					Token string `json:"token"`
					User  struct {
						ID       string `json:"id"`
						Username string `json:"username"`
					} `json:"user"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token in the response")
				}
				if resp.User.Username != "chef1" {
					t.Errorf("got username %q, want chef1", resp.User.Username)
				}
				if bytes.Contains(w.Body.Bytes(), []byte("password_hash")) {
					t.Error("response must not expose the password hash")
				}
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("pw123456")

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	stored := user.User{
		ID:           "u-1",
		Username:     "chef1",
		Email:        "chef1@x.com",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email":"chef1@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_fields",
			body:           `{"email":"chef1@x.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unknown_email",
			body: `{"email":"nobody@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, postgres.ErrUserNotFound
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "wrong_password",
			body: `{"email":"chef1@x.com","password":"wrong-pass"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// a datastore fault is not a credential failure
			name: "lookup_infrastructure_error_is_500",
			body: `{"email":"chef1@x.com","password":"pw123456"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, errors.New("connection refused")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, newTestJWT())

			r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			// wrong email and wrong password must read identically
			if tt.wantStatusCode == http.StatusUnauthorized {
				if !bytes.Contains(w.Body.Bytes(), []byte("Email or password is incorrect.")) {
					t.Errorf("credential failures must share one message, body=%s", w.Body.String())
				}
			}
		})
	}
}
