package chat

import (
	"time"

	"gorm.io/datatypes"
)

type Conversation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null;default:''" json:"title"`
	Messages  []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "agent_conversations" }

type Message struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement;index:idx_agent_msg_conversation_id,priority:2" json:"id"`
	ConversationID string         `gorm:"type:varchar(36);not null;index:idx_agent_msg_conversation_id,priority:1" json:"conversation_id"`
	UserID         *uint64        `gorm:"index" json:"user_id"`
	Agent          string         `gorm:"type:varchar(64);not null;default:''" json:"agent"`
	Role           string         `gorm:"type:varchar(16);not null" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Attachments    datatypes.JSON `json:"attachments"`
	ToolCalls      datatypes.JSON `json:"tool_calls"`
	ToolResults    datatypes.JSON `json:"tool_results"`
	Usage          datatypes.JSON `json:"usage"`
	Meta           datatypes.JSON `json:"meta"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Message) TableName() string { return "agent_conversation_messages" }

// Models lists every table owned by this package, for AutoMigrate.
func Models() []any {
	return []any{&Conversation{}, &Message{}, &Job{}}
}
