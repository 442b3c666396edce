package chat

import (
	"context"
	"errors"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
)

const DefaultHistoryLimit = 50

// Loader rebuilds the recent history window used to resume a conversation.
type Loader struct {
	repo  *Repo
	limit int
}

func NewLoader(repo *Repo, limit int) *Loader {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Loader{repo: repo, limit: limit}
}

// Load returns the conversation's last messages oldest-first. A conversation
// that does not exist, or that userID does not own, yields an empty slice.
func (l *Loader) Load(ctx context.Context, userID uint64, conversationID string) ([]Message, error) {
	if _, err := l.repo.GetConversation(ctx, userID, conversationID); err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return []Message{}, nil
		}
		return nil, err
	}
	return l.recent(ctx, conversationID)
}

func (l *Loader) recent(ctx context.Context, conversationID string) ([]Message, error) {
	desc, err := l.repo.ListRecentMessagesDesc(ctx, conversationID, l.limit, 0)
	if err != nil {
		return nil, err
	}
	return reverse(desc), nil
}

// reverse turns a newest-first page into oldest-first in place.
func reverse(msgs []Message) []Message {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}

// Transcript converts stored messages into provider messages.
func Transcript(msgs []Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := ai.NormalizeRole(m.Role)
		if role == "" {
			role = m.Role
		}
		out = append(out, ai.Message{
			Role:        role,
			Content:     m.Content,
			Attachments: []byte(m.Attachments),
			ToolCalls:   []byte(m.ToolCalls),
			ToolResults: []byte(m.ToolResults),
		})
	}
	return out
}
