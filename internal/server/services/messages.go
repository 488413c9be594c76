package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/delivery"
	"github.com/dmitrijs2005/gophchat/internal/server/media"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// Router hands a persisted message to live delivery.
type Router interface {
	Route(ctx context.Context, msg *models.Message) delivery.Outcome
}

// MessageService persists direct messages and serves conversation history.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageStore
	router      Router
	logger      logging.Logger
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, images ImageStore, router Router, logger logging.Logger) *MessageService {
	return &MessageService{
		db:          db,
		repomanager: m,
		images:      images,
		router:      router,
		logger:      logger.With("module", "message_service"),
	}
}

// History returns the conversation between callerID and otherID, oldest first.
func (s *MessageService) History(ctx context.Context, callerID, otherID string) ([]models.Message, error) {
	if callerID == "" || otherID == "" {
		return nil, invalid("Invalid user ID")
	}
	if err := s.requireUser(ctx, otherID); err != nil {
		return nil, err
	}

	msgs, err := s.repomanager.Messages(s.db).ListConversation(ctx, callerID, otherID)
	if err != nil {
		s.logger.Error(ctx, "list conversation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return msgs, nil
}

// Send stores a message and then offers it to live delivery. The result of
// delivery never affects the returned message or error.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text, image string) (*models.Message, error) {
	if text == "" && image == "" {
		return nil, invalid("Either text or image is required")
	}
	if senderID == "" || receiverID == "" {
		return nil, invalid("Invalid user ID")
	}
	if err := s.requireUser(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Text: text}
	if image != "" {
		url, err := s.images.Upload(ctx, media.MessageImages, image)
		if err != nil {
			return nil, uploadError(err)
		}
		msg.Image = url
	}

	saved, err := s.repomanager.Messages(s.db).Create(ctx, msg)
	if err != nil {
		s.logger.Error(ctx, "store message failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	outcome := s.router.Route(ctx, saved)
	s.logger.Debug(ctx, "message sent", "message_id", saved.ID, "delivery", outcome.String())

	return saved, nil
}

func (s *MessageService) requireUser(ctx context.Context, id string) error {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: User not found", common.ErrorNotFound)
		}
		s.logger.Error(ctx, "lookup user failed", "user_id", id, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}
