package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/media"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer is the part of auth.TokenService the services need.
type TokenIssuer interface {
	IssueAccess(id auth.Identity) (string, error)
	IssueRefresh(id auth.Identity) (string, error)
	Verify(token string, class auth.SecretClass) (*auth.Claims, error)
}

// ImageStore persists an uploaded data URL and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, folder media.Folder, dataURL string) (string, error)
}

// UserService handles registration, login, credential rotation and profile
// updates. The user's current refresh credential is stored server-side so
// logout and rotation can revoke it.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	images      ImageStore
	logger      logging.Logger
	hashCost    int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer, images ImageStore, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		images:      images,
		logger:      logger.With("module", "user_service"),
		hashCost:    bcrypt.DefaultCost,
	}
}

// Signup validates and creates a user, then issues and stores credentials in
// the same transaction.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, *TokenPair, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, nil, err
	}

	exists, err := s.repomanager.Users(s.db).ExistsByUsernameOrEmail(ctx, in.UserName, in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return nil, nil, fmt.Errorf("%w: Username or email already exists", common.ErrorAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user := &models.User{
		UserName:       in.UserName,
		Email:          in.Email,
		FullName:       in.FullName,
		ProfilePicture: defaultAvatar(in.UserName),
		PasswordHash:   hash,
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		created, err := repo.Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		pair, err = s.issuePair(ctx, repo, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, fmt.Errorf("%w: Username or email already exists", common.ErrorAlreadyExists)
		}
		return nil, nil, s.internal(ctx, "signup", err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return user, pair, nil
}

// Login accepts a username or an email. Unknown users and wrong passwords
// both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, *TokenPair, error) {
	login := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	if login == "" || password == "" {
		return nil, nil, invalid("Username/Email and password are required")
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, s.internal(ctx, "login lookup", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, repo, user)
	if err != nil {
		return nil, nil, s.internal(ctx, "login tokens", err)
	}
	return user, pair, nil
}

// Logout revokes the stored refresh credential.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return s.internal(ctx, "logout", err)
	}
	return nil
}

// Refresh verifies refreshToken with the refresh secret, checks it is the one
// stored for its user and rotates both credentials in a transaction.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, fmt.Errorf("%w: no refresh token", common.ErrorUnauthorized)
	}

	claims, err := s.tokens.Verify(refreshToken, auth.RefreshClass)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		u, err := repo.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: user not found", common.ErrorUnauthorized)
			}
			return err
		}
		if subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(refreshToken)) != 1 {
			return fmt.Errorf("%w: refresh token revoked", common.ErrorUnauthorized)
		}
		user = u
		pair, err = s.issuePair(ctx, repo, u)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Info(ctx, "refresh rejected", "user_id", claims.UserID, "reason", err)
			return nil, nil, err
		}
		return nil, nil, s.internal(ctx, "refresh", err)
	}
	return user, pair, nil
}

// UpdateProfilePicture uploads dataURL (jpg, jpeg, png or webp) and stores its URL.
func (s *UserService) UpdateProfilePicture(ctx context.Context, userID, dataURL string) (*models.User, error) {
	if dataURL == "" {
		return nil, invalid("Profile picture is required")
	}

	url, err := s.images.Upload(ctx, media.ProfilePictures, dataURL)
	if err != nil {
		return nil, uploadError(err)
	}

	user, err := s.repomanager.Users(s.db).UpdateProfilePicture(ctx, userID, url)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: User not found", common.ErrorNotFound)
		}
		return nil, s.internal(ctx, "update profile picture", err)
	}
	return user, nil
}

// ListUsers returns everyone except exceptID.
func (s *UserService) ListUsers(ctx context.Context, exceptID string) ([]models.User, error) {
	users, err := s.repomanager.Users(s.db).ListExcept(ctx, exceptID)
	if err != nil {
		return nil, s.internal(ctx, "list users", err)
	}
	return users, nil
}

// --- helpers below ---

type refreshStore interface {
	SetRefreshToken(ctx context.Context, id, token string) error
}

func (s *UserService) issuePair(ctx context.Context, repo refreshStore, u *models.User) (*TokenPair, error) {
	id := auth.Identity{ID: u.ID, UserName: u.UserName, Email: u.Email}

	access, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	if err := repo.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = refresh

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
