package chat

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
)

// conversationMemory is the Conversational capability backed by the message
// log of a single conversation.
type conversationMemory struct {
	repo            *Repo
	loader          *Loader
	conversation    *Conversation
	isNew           bool
	agentName       string
	persistUserTurn bool

	reply *Message
}

func (m *conversationMemory) Messages(ctx context.Context) ([]ai.Message, error) {
	if m.isNew {
		return nil, nil
	}
	msgs, err := m.loader.recent(ctx, m.conversation.ID)
	if err != nil {
		return nil, err
	}
	return Transcript(msgs), nil
}

func (m *conversationMemory) Remember(ctx context.Context, prompt string, reply *ai.Result) error {
	uid := m.conversation.UserID

	msgs := make([]*Message, 0, 2)
	if m.persistUserTurn {
		msgs = append(msgs, &Message{
			UserID:  &uid,
			Agent:   m.agentName,
			Role:    ai.RoleUser,
			Content: prompt,
		})
	}

	assistant := &Message{
		Agent:   m.agentName,
		Role:    ai.RoleAssistant,
		Content: reply.Text,
		Usage:   jsonOrNil(reply.Usage),
		Meta: jsonOrNil(map[string]any{
			"model":   reply.Model,
			"sources": reply.Sources,
		}),
	}
	msgs = append(msgs, assistant)

	if err := m.repo.SaveTurn(ctx, m.conversation, m.isNew, msgs...); err != nil {
		return err
	}
	m.isNew = false
	m.reply = assistant
	return nil
}

func jsonOrNil(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}
