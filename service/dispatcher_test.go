package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"chatdesk/config"
	"chatdesk/llm"
	"chatdesk/models"
	"chatdesk/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeChatStore struct {
	mu           sync.Mutex
	bots         map[uint]*models.Bot
	knowledge    map[uint][]models.KnowledgeEntry
	interactions []models.ChatInteraction
	settings     map[string]string
	createErr    error
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		bots:      make(map[uint]*models.Bot),
		knowledge: make(map[uint][]models.KnowledgeEntry),
		settings:  make(map[string]string),
	}
}

func (f *fakeChatStore) GetBot(_ context.Context, id uint) (*models.Bot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bots[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeChatStore) ListKnowledge(_ context.Context, botID uint) ([]models.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.knowledge[botID], nil
}

func (f *fakeChatStore) CreateInteraction(_ context.Context, in *models.ChatInteraction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	in.ID = uint(len(f.interactions) + 1)
	f.interactions = append(f.interactions, *in)
	return nil
}

func (f *fakeChatStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	return v, ok, nil
}

type fakeAdapter struct {
	calls    int
	messages []llm.Message
	opts     llm.Options
	reply    *llm.Reply
	err      error
	ctxErr   error
}

func (f *fakeAdapter) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Reply, error) {
	f.calls++
	f.messages = messages
	f.opts = opts
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func newBot(id uint, settings models.BotSettings) *models.Bot {
	b := &models.Bot{ID: id, Name: "Support", Settings: datatypes.NewJSONType(settings)}
	b.Provider = settings.ResolveProvider()
	return b
}

func newTestDispatcher(st *fakeChatStore, adapters map[llm.Provider]llm.ChatProvider) *ChatDispatcher {
	reg := llm.NewRegistry(llm.ProviderGoogle)
	for p, a := range adapters {
		reg.Register(p, a)
	}
	keys := NewCredentialResolver(st, config.ProvidersConfig{
		Google: config.ProviderConfig{APIKey: "env-google-key"},
	})
	return NewChatDispatcher(st, reg, keys, config.ChatConfig{})
}

func TestDispatch_AnthropicSuccess(t *testing.T) {
	st := newFakeChatStore()
	st.settings[models.SettingAnthropicAPIKey] = "sk-system"
	st.bots[1] = newBot(1, models.BotSettings{SystemPrompt: "Be helpful", Model: "claude-3-haiku", Temperature: 0.5, MaxTokens: 256})
	tokens := 12
	adapter := &fakeAdapter{reply: &llm.Reply{Role: llm.RoleAssistant, Content: "Hello", TokensUsed: &tokens}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderAnthropic: adapter})

	res, err := d.Dispatch(context.Background(), "1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Response)
	assert.Equal(t, llm.ProviderAnthropic, res.Provider)

	assert.Equal(t, 1, adapter.calls)
	assert.Equal(t, "sk-system", adapter.opts.APIKey)
	assert.Equal(t, "claude-3-haiku", adapter.opts.Model)
	assert.Equal(t, 0.5, adapter.opts.Temperature)
	assert.Equal(t, 256, adapter.opts.MaxOutputTokens)
	require.Len(t, adapter.messages, 1)
	assert.Equal(t, llm.RoleUser, adapter.messages[0].Role)
	assert.Equal(t, "Sistema: Be helpful\n\nUsuário: Hi", adapter.messages[0].Content)

	require.Len(t, st.interactions, 1)
	row := st.interactions[0]
	assert.True(t, row.Success)
	assert.Equal(t, "Hello", row.BotResponse)
	assert.Equal(t, "Hi", row.UserMessage)
	assert.Equal(t, "anthropic", row.Provider)
	require.NotNil(t, row.TokensUsed)
	assert.Equal(t, 12, *row.TokensUsed)
	assert.Nil(t, row.ErrorMessage)
}

func TestDispatch_ProviderFailureRecorded(t *testing.T) {
	st := newFakeChatStore()
	st.settings[models.SettingAnthropicAPIKey] = "sk-system"
	st.bots[1] = newBot(1, models.BotSettings{Model: "claude-3-haiku"})
	adapter := &fakeAdapter{err: &llm.ProviderError{Provider: llm.ProviderAnthropic, StatusCode: 429, Message: "rate limited"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderAnthropic: adapter})

	res, err := d.Dispatch(context.Background(), "1", "Hi")
	assert.Nil(t, res)
	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "rate limited")

	require.Len(t, st.interactions, 1)
	row := st.interactions[0]
	assert.False(t, row.Success)
	assert.Equal(t, "", row.BotResponse)
	require.NotNil(t, row.ErrorMessage)
	assert.Contains(t, *row.ErrorMessage, "rate limited")
}

func TestDispatch_PlainAdapterErrorIsWrappedAndRedacted(t *testing.T) {
	st := newFakeChatStore()
	st.bots[3] = newBot(3, models.BotSettings{Model: "gemini-1.5-flash", APIKeys: models.ProviderKeys{Google: "bot-key-123"}})
	adapter := &fakeAdapter{err: errors.New("dial tcp: key=bot-key-123 refused")}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	_, err := d.Dispatch(context.Background(), "3", "Hi")
	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.NotContains(t, err.Error(), "bot-key-123")
	assert.Equal(t, "bot-key-123", adapter.opts.APIKey)

	require.Len(t, st.interactions, 1)
	assert.NotContains(t, *st.interactions[0].ErrorMessage, "bot-key-123")
}

func TestDispatch_InvalidMessage(t *testing.T) {
	st := newFakeChatStore()
	st.bots[1] = newBot(1, models.BotSettings{Model: "gemini-pro"})
	adapter := &fakeAdapter{reply: &llm.Reply{Content: "x"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	for _, msg := range []string{"", strings.Repeat("a", 2001)} {
		_, err := d.Dispatch(context.Background(), "1", msg)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
	assert.Equal(t, 0, adapter.calls)
	assert.Empty(t, st.interactions)

	// 2000 个多字节字符仍然合法
	_, err := d.Dispatch(context.Background(), "1", strings.Repeat("é", 2000))
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.calls)

	// 只有空白也是非空消息
	_, err = d.Dispatch(context.Background(), "1", "   ")
	require.NoError(t, err)
	assert.Equal(t, 2, adapter.calls)
	assert.Len(t, st.interactions, 2)
}

func TestDispatch_InvalidBotID(t *testing.T) {
	st := newFakeChatStore()
	adapter := &fakeAdapter{}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	for _, raw := range []string{"abc", "0", "-1", ""} {
		_, err := d.Dispatch(context.Background(), raw, "Hi")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, raw)
	}
	assert.Equal(t, 0, adapter.calls)
}

func TestDispatch_BotNotFound(t *testing.T) {
	st := newFakeChatStore()
	adapter := &fakeAdapter{}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	_, err := d.Dispatch(context.Background(), "42", "Hi")
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, uint(42), nerr.ID)
	assert.Equal(t, 0, adapter.calls)
	assert.Empty(t, st.interactions)
}

func TestDispatch_KnowledgeContext(t *testing.T) {
	st := newFakeChatStore()
	st.bots[5] = newBot(5, models.BotSettings{SystemPrompt: "S", Model: "openai/gpt-4o"})
	st.knowledge[5] = []models.KnowledgeEntry{{Content: "first"}, {Content: "second"}}
	adapter := &fakeAdapter{reply: &llm.Reply{Content: "ok"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderOpenRouter: adapter})

	_, err := d.Dispatch(context.Background(), "5", "Q")
	require.NoError(t, err)
	assert.Equal(t, "Sistema: S\n\nContexto: first\n\nsecond\n\nUsuário: Q", adapter.messages[0].Content)
	assert.Equal(t, "openrouter", st.interactions[0].Provider)
}

func TestDispatch_UnknownModelUsesFallback(t *testing.T) {
	st := newFakeChatStore()
	st.bots[1] = newBot(1, models.BotSettings{Model: "mistral-7b"})
	adapter := &fakeAdapter{reply: &llm.Reply{Content: "ok"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	_, err := d.Dispatch(context.Background(), "1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "env-google-key", adapter.opts.APIKey)
	assert.Equal(t, "google", st.interactions[0].Provider)
}

func TestDispatch_ClientCancelDoesNotAbortCall(t *testing.T) {
	st := newFakeChatStore()
	st.bots[1] = newBot(1, models.BotSettings{Model: "gemini-pro"})
	adapter := &fakeAdapter{reply: &llm.Reply{Content: "ok"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Dispatch(ctx, "1", "Hi")
	require.NoError(t, err)
	assert.NoError(t, adapter.ctxErr)
	assert.Len(t, st.interactions, 1)
}

func TestDispatch_PersistenceFailureDoesNotChangeOutcome(t *testing.T) {
	st := newFakeChatStore()
	st.bots[1] = newBot(1, models.BotSettings{Model: "gemini-pro"})
	st.createErr = errors.New("db down")
	adapter := &fakeAdapter{reply: &llm.Reply{Content: "still here"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	res, err := d.Dispatch(context.Background(), "1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "still here", res.Response)
}

func TestDispatch_LatencyRecorded(t *testing.T) {
	st := newFakeChatStore()
	st.bots[1] = newBot(1, models.BotSettings{Model: "gemini-pro"})
	adapter := &fakeAdapter{reply: &llm.Reply{Content: "ok"}}
	d := newTestDispatcher(st, map[llm.Provider]llm.ChatProvider{llm.ProviderGoogle: adapter})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	d.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 150 * time.Millisecond)
	}
	res, err := d.Dispatch(context.Background(), "1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, res.Latency)
	assert.Equal(t, int64(150), st.interactions[0].ResponseTimeMs)
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "Sistema: sys\n\nContexto: ctx\n\nUsuário: msg", BuildPrompt("sys", "ctx", "msg"))
	assert.Equal(t, "Sistema: sys\n\nUsuário: msg", BuildPrompt("sys", "", "msg"))
}
