package messages

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListConversation returns messages exchanged between a and b in either
	// direction, oldest first.
	ListConversation(ctx context.Context, a, b string) ([]models.Message, error)
}
