package users

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin matches either the username or the email.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ListExcept(ctx context.Context, id string) ([]models.User, error)
	UpdateProfilePicture(ctx context.Context, id, url string) (*models.User, error)
	// SetRefreshToken stores the user's current refresh credential; "" clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
}
