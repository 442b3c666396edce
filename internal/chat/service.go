package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/tcg-chat/internal/agent"
	"github.com/suPer8Hu/tcg-chat/internal/ai"
	"github.com/suPer8Hu/tcg-chat/internal/common"
	"github.com/suPer8Hu/tcg-chat/internal/metrics"
	"github.com/suPer8Hu/tcg-chat/internal/prompt"
)

const (
	MaxMessageLength = 2000
	maxTitleLength   = 80

	// NoResponseText replaces an empty model reply on the direct path.
	NoResponseText = "No response"

	fileSearchProvider = "gemini"
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = fmt.Errorf("message may not be greater than %d characters", MaxMessageLength)

	conversationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,36}$`)
)

// ProviderError wraps a failure of the remote model call.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

type Settings struct {
	Role            string
	BasePrompt      string
	Language        string
	FileSearchKey   string
	HistoryLimit    int
	PersistUserTurn bool
	Generation      ai.GenerationConfig
}

type Service struct {
	repo     *Repo
	loader   *Loader
	provider ai.Provider
	settings Settings
	log      zerolog.Logger
}

func NewService(repo *Repo, provider ai.Provider, settings Settings, log zerolog.Logger) *Service {
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = DefaultHistoryLimit
	}
	return &Service{
		repo:     repo,
		loader:   NewLoader(repo, settings.HistoryLimit),
		provider: provider,
		settings: settings,
		log:      log,
	}
}

type ChatInput struct {
	ConversationID string
	Message        string
	UseAgent       bool
	UseFileSearch  bool
}

// DirectReply is the stateless answer of the direct path.
type DirectReply struct {
	Text    string      `json:"text"`
	Sources []ai.Source `json:"sources"`
}

// AgentReply is the answer of the agent path, with the persisted reply.
type AgentReply struct {
	ConversationID string      `json:"conversationId"`
	Text           string      `json:"text"`
	Sources        []ai.Source `json:"sources"`
	Usage          *ai.Usage   `json:"usage,omitempty"`
	Message        *Message    `json:"message"`
}

// Reply carries exactly one of Direct or Agent.
type Reply struct {
	Direct *DirectReply
	Agent  *AgentReply
}

func ValidateMessage(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(msg) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Chat routes one user message to the agent path or the direct path.
func (s *Service) Chat(ctx context.Context, userID uint64, in ChatInput) (*Reply, error) {
	if err := ValidateMessage(in.Message); err != nil {
		return nil, err
	}
	if in.UseAgent {
		r, err := s.Converse(ctx, userID, in.ConversationID, in.Message, in.UseFileSearch)
		if err != nil {
			return nil, err
		}
		return &Reply{Agent: r}, nil
	}
	r, err := s.Ask(ctx, userID, in.Message, in.UseFileSearch)
	if err != nil {
		return nil, err
	}
	return &Reply{Direct: r}, nil
}

// Ask answers a single question without touching the message log.
func (s *Service) Ask(ctx context.Context, userID uint64, message string, useFileSearch bool) (*DirectReply, error) {
	req := ai.Request{
		Messages: []ai.Message{{
			Role:    ai.RoleUser,
			Content: prompt.Base(s.settings.BasePrompt, s.settings.Role, message),
		}},
		Config: s.settings.Generation,
	}
	if useFileSearch {
		tool, err := s.fileSearchTool(ctx)
		if err != nil {
			s.log.Error().Err(err).Uint64("user_id", userID).Str("path", "direct").Msg("resolve file search corpus")
			return nil, err
		}
		req.Tools = []ai.Tool{tool}
	}

	res, err := observe(s.provider, "direct").Generate(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Uint64("user_id", userID).Str("path", "direct").Msg("gemini error")
		return nil, err
	}

	text := res.Text
	if text == "" {
		text = NoResponseText
	}
	sources := res.Sources
	if sources == nil {
		sources = []ai.Source{}
	}
	return &DirectReply{Text: text, Sources: sources}, nil
}

// Converse continues conversationID (or starts a new conversation when it is
// empty) through the agent, and returns the persisted assistant reply.
func (s *Service) Converse(ctx context.Context, userID uint64, conversationID, message string, useFileSearch bool) (*AgentReply, error) {
	conv, isNew, err := s.resolveConversation(ctx, userID, conversationID, message)
	if err != nil {
		return nil, err
	}

	var tools agent.HasTools
	if useFileSearch {
		tool, err := s.fileSearchTool(ctx)
		if err != nil {
			s.log.Error().Err(err).Uint64("user_id", userID).Str("conversation_id", conv.ID).Str("path", "agent").Msg("resolve file search corpus")
			return nil, err
		}
		tools = agent.Tools{tool}
	}

	persona := agent.TCGAssistant(s.settings.Language)
	mem := &conversationMemory{
		repo:            s.repo,
		loader:          s.loader,
		conversation:    conv,
		isNew:           isNew,
		agentName:       persona.Name(),
		persistUserTurn: s.settings.PersistUserTurn,
	}

	res, err := agent.New(persona, mem, tools).Prompt(ctx, observe(s.provider, "agent"), message, s.settings.Generation)
	if err != nil {
		s.log.Error().Err(err).Uint64("user_id", userID).Str("conversation_id", conv.ID).Str("path", "agent").Msg("gemini error")
		return nil, err
	}
	if isNew {
		metrics.ConversationsCreatedTotal.Inc()
	}

	sources := res.Sources
	if sources == nil {
		sources = []ai.Source{}
	}
	return &AgentReply{
		ConversationID: conv.ID,
		Text:           res.Text,
		Sources:        sources,
		Usage:          res.Usage,
		Message:        mem.reply,
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, userID uint64, conversationID, message string) (*Conversation, bool, error) {
	if conversationID != "" {
		conv, err := s.repo.GetConversation(ctx, userID, conversationID)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}
	return &Conversation{ID: id, UserID: userID, Title: TitleFromMessage(message)}, true, nil
}

func (s *Service) fileSearchTool(ctx context.Context) (ai.Tool, error) {
	f, err := s.repo.GetUploadedFile(ctx, fileSearchProvider, s.settings.FileSearchKey)
	if err != nil {
		return ai.Tool{}, err
	}
	return ai.FileSearch(f.ProviderID), nil
}

// LoadHistory is the Loader contract exposed to callers: the last
// HistoryLimit messages oldest-first, or none when userID has no such
// conversation.
func (s *Service) LoadHistory(ctx context.Context, userID uint64, conversationID string) ([]Message, error) {
	return s.loader.Load(ctx, userID, conversationID)
}

func (s *Service) CreateConversation(ctx context.Context, userID uint64, id, title string) (*Conversation, error) {
	if id == "" {
		generated, err := common.NewULID()
		if err != nil {
			return nil, err
		}
		id = generated
	} else if !conversationIDPattern.MatchString(id) {
		return nil, ErrInvalidConversationID
	}

	exists, err := s.repo.ConversationExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConversationExists
	}

	conv := &Conversation{ID: id, UserID: userID, Title: TitleFromMessage(title)}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	metrics.ConversationsCreatedTotal.Inc()
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context, userID uint64, limit int) ([]Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListConversations(ctx, userID, limit)
}

const (
	DefaultMessagePage = 500
	MaxMessagePage     = 1000
)

// MessagePage selects a window of a conversation's messages. With AfterID set
// the window is the oldest Limit messages after it; otherwise it is the newest
// Limit messages, below BeforeID when that is set.
type MessagePage struct {
	Limit    int
	AfterID  uint64
	BeforeID uint64
}

// ListMessages returns one page of the conversation's messages oldest-first.
func (s *Service) ListMessages(ctx context.Context, userID uint64, conversationID string, page MessagePage) ([]Message, error) {
	if page.Limit <= 0 || page.Limit > MaxMessagePage {
		page.Limit = DefaultMessagePage
	}
	if _, err := s.repo.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if page.AfterID > 0 {
		return s.repo.ListMessagesAsc(ctx, conversationID, page.Limit, page.AfterID)
	}
	desc, err := s.repo.ListRecentMessagesDesc(ctx, conversationID, page.Limit, page.BeforeID)
	if err != nil {
		return nil, err
	}
	return reverse(desc), nil
}

func (s *Service) DeleteConversation(ctx context.Context, userID uint64, conversationID string) error {
	return s.repo.DeleteConversation(ctx, userID, conversationID)
}

// TitleFromMessage collapses whitespace and truncates to a short title.
func TitleFromMessage(msg string) string {
	title := strings.Join(strings.Fields(msg), " ")
	if utf8.RuneCountInString(title) <= maxTitleLength {
		return title
	}
	r := []rune(title)
	return strings.TrimSpace(string(r[:maxTitleLength]))
}

// observedProvider times remote calls and marks their failures as
// ProviderError so callers can tell them apart from storage errors.
type observedProvider struct {
	ai.Provider
	path string
}

func observe(p ai.Provider, path string) ai.Provider {
	return observedProvider{Provider: p, path: path}
}

func (p observedProvider) Generate(ctx context.Context, req ai.Request) (*ai.Result, error) {
	start := time.Now()
	res, err := p.Provider.Generate(ctx, req)
	metrics.RecordProviderCall(p.path, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	if res.Usage != nil {
		metrics.RecordTokens(res.Usage.PromptTokens, res.Usage.CompletionTokens)
	}
	return res, nil
}
