package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
	"github.com/suPer8Hu/tcg-chat/internal/auth"
	"github.com/suPer8Hu/tcg-chat/internal/chat"
	"github.com/suPer8Hu/tcg-chat/internal/config"
	"github.com/suPer8Hu/tcg-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/tcg-chat/internal/models"
)

type stubProvider struct {
	calls int
	res   *ai.Result
	err   error
}

func (p *stubProvider) Generate(ctx context.Context, req ai.Request) (*ai.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.res != nil {
		return p.res, nil
	}
	return &ai.Result{Text: "respuesta", Model: "stub"}, nil
}

type stubPublisher struct {
	published []string
	err       error
}

func (p *stubPublisher) PublishJob(_ context.Context, jobID string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, jobID)
	return nil
}

type testEnv struct {
	r    *gin.Engine
	db   *gorm.DB
	prov *stubProvider
	pub  *stubPublisher
	cfg  config.Config
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	gdb, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(append([]any{&models.User{}, &models.UploadedFile{}}, chat.Models()...)...))

	cfg := config.Config{
		JWTSecret:            "test-secret",
		JWTTTL:               time.Hour,
		ChatbotRole:          "a TCG expert",
		ChatbotBasePrompt:    "You are :role. :question",
		ChatbotLanguage:      "Spanish",
		ChatbotFileSearchKey: "posts",
		ChatHistoryLimit:     50,
		ChatPersistUserTurn:  true,
	}
	prov := &stubProvider{}
	pub := &stubPublisher{}
	svc := chat.NewService(chat.NewRepo(gdb), prov, cfg.ChatSettings(), zerolog.Nop())
	h := handlers.NewHandler(gdb, cfg, svc, pub, zerolog.Nop())
	return &testEnv{r: NewRouter(h, nil), db: gdb, prov: prov, pub: pub, cfg: cfg}
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	u := models.User{Email: email, PasswordHash: hash}
	require.NoError(t, e.db.Create(&u).Error)
	tok, err := auth.SignJWT(u.ID, e.cfg.JWTSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPingAndNoRoute(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/nope", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/chat", "", gin.H{"message": "hi"}).Code)
}

func TestRegisterLoginAndMe(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/users", "", gin.H{"email": "Ash@Example.com", "password": "pikachu123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/users", "", gin.H{"email": "ash@example.com", "password": "pikachu123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/login", "", gin.H{"email": "ash@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/login", "", gin.H{"email": "ash@example.com", "password": "pikachu123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["data"].(map[string]any)["token"].(string)

	w = e.do(http.MethodGet, "/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ash@example.com", data["email"])
	assert.NotContains(t, data, "PasswordHash")
}

func TestChat_DirectPath(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")

	w := e.do(http.MethodPost, "/chat", tok, gin.H{"message": "What is a hero?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"text":"respuesta","sources":[]}`, w.Body.String())

	var n int64
	require.NoError(t, e.db.Model(&chat.Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestChat_Validation(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")

	w := e.do(http.MethodPost, "/chat", tok, gin.H{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "The message field is required.", body["message"])
	assert.Contains(t, body["errors"], "message")

	w = e.do(http.MethodPost, "/chat", tok, gin.H{"message": strings.Repeat("a", 2001)})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodPost, "/chat", tok, gin.H{"message": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Zero(t, e.prov.calls)
}

func TestChat_ProviderError(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")
	e.prov.err = errors.New("gemini: quota exceeded")

	w := e.do(http.MethodPost, "/chat", tok, gin.H{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to get response: gemini: quota exceeded"}`, w.Body.String())
}

func TestChat_AgentConversationFlow(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")
	other := e.token(t, "b@example.com")

	w := e.do(http.MethodPost, "/chat", tok, gin.H{"message": "Build me a deck", "useAgent": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	convID := body["conversationId"].(string)
	require.NotEmpty(t, convID)
	assert.Equal(t, "respuesta", body["text"])

	w = e.do(http.MethodPost, "/chat", tok, gin.H{"message": "more", "useAgent": true, "conversationId": convID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, convID, decode(t, w)["conversationId"])

	w = e.do(http.MethodGet, "/chat/messages?conversationId="+convID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode(t, w)["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "Build me a deck", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "assistant", msgs[3].(map[string]any)["role"])

	// other users see nothing
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/chat/messages?conversationId="+convID, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/chat", other, gin.H{"message": "x", "useAgent": true, "conversationId": convID}).Code)
	w = e.do(http.MethodDelete, "/chat/conversations/"+convID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false}`, w.Body.String())

	w = e.do(http.MethodDelete, "/chat/conversations/"+convID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/chat/messages?conversationId="+convID, tok, nil).Code)
}

func TestChat_MessagesRequiresConversationID(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/chat/messages", tok, nil).Code)
}

func TestConversations(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")

	w := e.do(http.MethodPost, "/chat/conversations", tok, gin.H{"id": "deck-1", "title": "Deck one"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/chat/conversations", tok, gin.H{"id": "deck-1"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/chat/conversations", tok, gin.H{"id": "no spaces"}).Code)

	w = e.do(http.MethodGet, "/chat/conversations", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	convs := decode(t, w)["data"].(map[string]any)["conversations"].([]any)
	require.Len(t, convs, 1)
	assert.Equal(t, "deck-1", convs[0].(map[string]any)["id"])
}

func TestAsyncChat(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")
	other := e.token(t, "b@example.com")

	w := e.do(http.MethodPost, "/chat/async", tok, gin.H{"message": "later"}, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	jobID := decode(t, w)["data"].(map[string]any)["job_id"].(string)

	w = e.do(http.MethodPost, "/chat/async", tok, gin.H{"message": "later"}, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobID, decode(t, w)["data"].(map[string]any)["job_id"])
	assert.Equal(t, []string{jobID}, e.pub.published)

	w = e.do(http.MethodPost, "/chat/async", tok, gin.H{"message": "x"}, "Idempotency-Key", strings.Repeat("k", 129))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/chat/jobs/"+jobID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode(t, w)["data"].(map[string]any)["job"].(map[string]any)
	assert.Equal(t, "queued", job["status"])

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/chat/jobs/"+jobID, other, nil).Code)
	assert.Zero(t, e.prov.calls)
}

func TestAsyncChat_PublishFailure(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")
	e.pub.err = errors.New("broker down")

	w := e.do(http.MethodPost, "/chat/async", tok, gin.H{"message": "later"}, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// the retry with the same key enqueues the still queued job
	e.pub.err = nil
	w = e.do(http.MethodPost, "/chat/async", tok, gin.H{"message": "later"}, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	jobID := decode(t, w)["data"].(map[string]any)["job_id"].(string)
	assert.Equal(t, []string{jobID}, e.pub.published)

	var jobs int64
	require.NoError(t, e.db.Model(&chat.Job{}).Count(&jobs).Error)
	assert.Equal(t, int64(1), jobs)
}

func TestListMessages_Paging(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "a@example.com")

	var convID string
	for i := 0; i < 3; i++ {
		w := e.do(http.MethodPost, "/chat", tok, gin.H{"message": fmt.Sprintf("q%d", i), "useAgent": true, "conversationId": convID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		convID = decode(t, w)["conversationId"].(string)
	}

	w := e.do(http.MethodGet, "/chat/messages?limit=2&conversationId="+convID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "q2", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
	before := body["nextBeforeId"].(float64)
	assert.Nil(t, body["nextAfterId"])

	w = e.do(http.MethodGet, fmt.Sprintf("/chat/messages?limit=10&beforeId=%d&conversationId=%s", int64(before), convID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	msgs = body["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "q0", msgs[0].(map[string]any)["content"])
	assert.Nil(t, body["nextBeforeId"])

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/chat/messages?limit=x&conversationId="+convID, tok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/chat/messages?afterId=1&beforeId=2&conversationId="+convID, tok, nil).Code)
}
