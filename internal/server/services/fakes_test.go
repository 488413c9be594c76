package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/delivery"
	"github.com/dmitrijs2005/gophchat/internal/server/media"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	s, err := auth.NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return s
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo is an in-memory users.Repository keyed by id.
type fakeUsersRepo struct {
	byID    map[string]*models.User
	nextID  int
	failAll error

	createErr error
	setErr    error
}

func newFakeUsers(us ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range us {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	u.ID = "new-" + string(rune('0'+f.nextID))
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	for _, u := range f.byID {
		if u.UserName == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if f.failAll != nil {
		return false, f.failAll
	}
	for _, u := range f.byID {
		if u.UserName == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) ListExcept(ctx context.Context, id string) ([]models.User, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := []models.User{}
	for _, u := range f.byID {
		if u.ID != id {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsersRepo) UpdateProfilePicture(ctx context.Context, id, url string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.ProfilePicture = url
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	if f.setErr != nil {
		return f.setErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken = token
	return nil
}

type fakeMessagesRepo struct {
	stored    []models.Message
	createErr error
	listErr   error
}

func (f *fakeMessagesRepo) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	m.ID = "m" + string(rune('1'+len(f.stored)))
	m.CreatedAt = time.Date(2026, 5, 1, 0, len(f.stored), 0, 0, time.UTC)
	f.stored = append(f.stored, *m)
	return m, nil
}

func (f *fakeMessagesRepo) ListConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Message{}
	for _, m := range f.stored {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	m *fakeMessagesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Messages(db dbx.DBTX) messages.Repository    { return m.m }

type fakeImages struct {
	folder media.Folder
	url    string
	err    error
}

func (f *fakeImages) Upload(ctx context.Context, folder media.Folder, dataURL string) (string, error) {
	f.folder = folder
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeRouter struct {
	routed  []*models.Message
	outcome delivery.Outcome
}

func (f *fakeRouter) Route(ctx context.Context, m *models.Message) delivery.Outcome {
	f.routed = append(f.routed, m)
	return f.outcome
}
