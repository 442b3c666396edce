package chat

import "errors"

var (
	// ErrConversationNotFound also covers conversations owned by another user.
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrConversationExists    = errors.New("conversation already exists")
	ErrInvalidConversationID = errors.New("invalid conversation id")
	ErrCorpusNotFound        = errors.New("file search corpus not found")
	ErrJobNotFound           = errors.New("job not found")
)
