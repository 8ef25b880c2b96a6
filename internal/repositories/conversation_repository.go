package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts chat thread persistence.
type ConversationRepository interface {
	CreateOrGetConversation(ctx context.Context, adID uuid.UUID, userID, otherID string) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int) (models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID int, senderID, text string) (models.Message, error)
	ListMessages(ctx context.Context, conversationID int) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID int, userID string) error
	DeleteForAd(ctx context.Context, adID uuid.UUID) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, ad_id, user1_id, user2_id, last_message, last_sender, last_unread, created_at, updated_at`

// CreateOrGetConversation returns the thread between two users about an ad,
// creating it when absent. Participants are stored in sorted order so the
// pair is unique regardless of who started the chat.
func (r *ConversationRepo) CreateOrGetConversation(ctx context.Context, adID uuid.UUID, userID, otherID string) (models.Conversation, error) {
	if userID == otherID {
		return models.Conversation{}, errors.New("cannot start conversation with self")
	}
	participants := []string{userID, otherID}
	sort.Strings(participants)
	user1, user2 := participants[0], participants[1]

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations
        WHERE ad_id=$1 AND user1_id=$2 AND user2_id=$3`, adID, user1, user2)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO conversations (ad_id, user1_id, user2_id)
        VALUES ($1,$2,$3) RETURNING `+conversationColumns, adID, user1, user2).StructScan(&conv)
	return conv, err
}

// GetConversation fetches a thread by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListConversations returns every thread the user participates in, most
// recently updated first.
func (r *ConversationRepo) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, `SELECT `+conversationColumns+` FROM conversations
        WHERE user1_id=$1 OR user2_id=$1 ORDER BY updated_at DESC`, userID)
	return convs, err
}

// AppendMessage stores a message and refreshes the thread's last-message
// denormalization, flagging it unread for the counterpart.
func (r *ConversationRepo) AppendMessage(ctx context.Context, conversationID int, senderID, text string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var msg models.Message
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, text)
        VALUES ($1,$2,$3) RETURNING id, conversation_id, sender_id, text, created_at`,
		conversationID, senderID, text).StructScan(&msg)
	if err != nil {
		return models.Message{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET last_message=$1, last_sender=$2,
        last_unread=TRUE, updated_at=NOW() WHERE id=$3`, text, senderID, conversationID); err != nil {
		return models.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the thread's messages oldest first.
func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, conversation_id, sender_id, text, created_at
        FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC`, conversationID)
	return msgs, err
}

// MarkRead clears the unread flag, but only when the last message came from
// the counterpart. A sender opening their own thread changes nothing.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID int, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET last_unread=FALSE
        WHERE id=$1 AND last_sender<>$2 AND last_unread=TRUE`, conversationID, userID)
	return err
}

// DeleteForAd removes every thread attached to an ad.
func (r *ConversationRepo) DeleteForAd(ctx context.Context, adID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE ad_id=$1`, adID)
	return err
}
