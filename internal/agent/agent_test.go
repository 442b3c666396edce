package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/tcg-chat/internal/ai"
)

type fakeProvider struct {
	last ai.Request
	res  *ai.Result
	err  error
}

func (p *fakeProvider) Generate(ctx context.Context, req ai.Request) (*ai.Result, error) {
	p.last = req
	return p.res, p.err
}

type fakeMemory struct {
	history    []ai.Message
	remembered []string
}

func (m *fakeMemory) Messages(ctx context.Context) ([]ai.Message, error) {
	return m.history, nil
}

func (m *fakeMemory) Remember(ctx context.Context, prompt string, reply *ai.Result) error {
	m.remembered = append(m.remembered, prompt, reply.Text)
	return nil
}

func TestTCGAssistant_Instructions(t *testing.T) {
	p := TCGAssistant("Spanish")
	assert.Equal(t, TCGAssistantName, p.Name())
	assert.Contains(t, p.Instructions(), "conversation is always in Spanish\n")
	assert.NotContains(t, p.Instructions(), "{language}")
}

func TestPrompt_AppendsNewTurnAfterHistory(t *testing.T) {
	prov := &fakeProvider{res: &ai.Result{Text: "reply"}}
	mem := &fakeMemory{history: []ai.Message{
		{Role: ai.RoleUser, Content: "q1"},
		{Role: ai.RoleAssistant, Content: "a1"},
	}}
	a := New(TCGAssistant("Spanish"), mem, Tools{ai.FileSearch("store-1")})

	res, err := a.Prompt(context.Background(), prov, "q2", ai.GenerationConfig{Temperature: 1, MaxOutputTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "reply", res.Text)

	require.Len(t, prov.last.Messages, 3)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "q2"}, prov.last.Messages[2])
	assert.Contains(t, prov.last.Instructions, "Spanish")
	require.Len(t, prov.last.Tools, 1)
	assert.Equal(t, []string{"store-1"}, prov.last.Tools[0].StoreNames)
	assert.Equal(t, []string{"q2", "reply"}, mem.remembered)
}

func TestPrompt_ProviderFailureIsNotRemembered(t *testing.T) {
	prov := &fakeProvider{err: errors.New("boom")}
	mem := &fakeMemory{}
	a := New(TCGAssistant(""), mem, nil)

	_, err := a.Prompt(context.Background(), prov, "q", ai.GenerationConfig{})
	require.Error(t, err)
	assert.Empty(t, mem.remembered)
	assert.Nil(t, prov.last.Tools)
}

func TestPrompt_Stateless(t *testing.T) {
	prov := &fakeProvider{res: &ai.Result{Text: "ok"}}
	a := New(TCGAssistant("English"), nil, nil)

	_, err := a.Prompt(context.Background(), prov, "only", ai.GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: "only"}}, prov.last.Messages)
}
