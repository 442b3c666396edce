package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/suPer8Hu/tcg-chat/internal/models"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateConversation(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetConversation returns the conversation only when userID owns it.
func (r *Repo) GetConversation(ctx context.Context, userID uint64, id string) (*Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ConversationExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Conversation{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListConversations returns the user's conversations, newest first.
func (r *Repo) ListConversations(ctx context.Context, userID uint64, limit int) ([]Conversation, error) {
	var out []Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteConversation removes the conversation and all of its messages. It
// returns ErrConversationNotFound when userID does not own it.
func (r *Repo) DeleteConversation(ctx context.Context, userID uint64, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Conversation
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", c.ID).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

// SaveTurn inserts msgs in order within one transaction. When isNew is set
// the conversation row is created in the same transaction, otherwise its
// updated_at is bumped.
func (r *Repo) SaveTurn(ctx context.Context, c *Conversation, isNew bool, msgs ...*Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isNew {
			if err := tx.Create(c).Error; err != nil {
				return err
			}
		} else {
			c.UpdatedAt = time.Now()
			if err := tx.Model(&Conversation{}).
				Where("id = ?", c.ID).
				Update("updated_at", c.UpdatedAt).Error; err != nil {
				return err
			}
		}
		for _, m := range msgs {
			m.ConversationID = c.ID
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRecentMessagesDesc returns the most recent messages (newest -> oldest),
// optionally only those with an id below beforeID. Ids are assigned in
// insertion order, so id order is creation order.
func (r *Repo) ListRecentMessagesDesc(ctx context.Context, conversationID string, limit int, beforeID uint64) ([]Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListMessagesAsc returns messages oldest -> newest, optionally only those
// with an id greater than afterID.
func (r *Repo) ListMessagesAsc(ctx context.Context, conversationID string, limit int, afterID uint64) ([]Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Limit(limit)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *Repo) GetUploadedFile(ctx context.Context, provider, key string) (*models.UploadedFile, error) {
	var f models.UploadedFile
	err := r.db.WithContext(ctx).
		Where(&models.UploadedFile{Provider: provider, Key: key}).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCorpusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
