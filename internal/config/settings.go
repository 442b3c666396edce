package config

import (
	"github.com/suPer8Hu/tcg-chat/internal/ai"
	"github.com/suPer8Hu/tcg-chat/internal/chat"
)

// ChatSettings maps the chatbot configuration onto the chat service.
func (c Config) ChatSettings() chat.Settings {
	return chat.Settings{
		Role:            c.ChatbotRole,
		BasePrompt:      c.ChatbotBasePrompt,
		Language:        c.ChatbotLanguage,
		FileSearchKey:   c.ChatbotFileSearchKey,
		HistoryLimit:    c.ChatHistoryLimit,
		PersistUserTurn: c.ChatPersistUserTurn,
		Generation: ai.GenerationConfig{
			Temperature:     c.ChatTemperature,
			MaxOutputTokens: c.ChatMaxOutputTokens,
		},
	}
}
