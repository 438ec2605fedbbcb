package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"chatdesk/config"
	"chatdesk/llm"
	"chatdesk/metrics"
	"chatdesk/models"
	"chatdesk/store"

	"github.com/rs/zerolog/log"
)

const defaultMaxMessageLength = 2000

// ChatStore 聊天分发需要的存储能力
type ChatStore interface {
	GetBot(ctx context.Context, id uint) (*models.Bot, error)
	ListKnowledge(ctx context.Context, botID uint) ([]models.KnowledgeEntry, error)
	CreateInteraction(ctx context.Context, in *models.ChatInteraction) error
}

// ProviderResolver 服务商到适配器的解析（llm.Registry）
type ProviderResolver interface {
	Resolve(p llm.Provider) (llm.Provider, llm.ChatProvider, error)
}

// KeyResolver 密钥解析（CredentialResolver）
type KeyResolver interface {
	Resolve(ctx context.Context, bot *models.Bot, p llm.Provider) (string, error)
}

// ChatResult 成功的一轮对话
type ChatResult struct {
	Response   string
	Provider   llm.Provider
	Model      string
	TokensUsed *int
	Latency    time.Duration
}

// ChatDispatcher 一轮聊天的完整流程：校验、加载机器人和知识库、调用服务商、写入记录。
// 每次合法调用恰好写入一条记录，不重试
type ChatDispatcher struct {
	store     ChatStore
	providers ProviderResolver
	keys      KeyResolver
	cfg       config.ChatConfig
	now       func() time.Time
}

func NewChatDispatcher(st ChatStore, providers ProviderResolver, keys KeyResolver, cfg config.ChatConfig) *ChatDispatcher {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = defaultMaxMessageLength
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 60 * time.Second
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	return &ChatDispatcher{
		store:     st,
		providers: providers,
		keys:      keys,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ParseBotID 路径参数必须是正整数
func ParseBotID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Field: "botId", Message: "must be a positive integer"}
	}
	return uint(id), nil
}

func (d *ChatDispatcher) validateMessage(message string) error {
	if message == "" {
		return &ValidationError{Field: "message", Message: "is required"}
	}
	if utf8.RuneCountInString(message) > d.cfg.MaxMessageLength {
		return &ValidationError{Field: "message", Message: fmt.Sprintf("must be at most %d characters", d.cfg.MaxMessageLength)}
	}
	return nil
}

// BuildPrompt 拼接系统提示词、知识库上下文和用户消息，上下文为空时省略该段
func BuildPrompt(systemPrompt, knowledge, message string) string {
	var b strings.Builder
	b.WriteString("Sistema: ")
	b.WriteString(systemPrompt)
	if knowledge != "" {
		b.WriteString("\n\nContexto: ")
		b.WriteString(knowledge)
	}
	b.WriteString("\n\nUsuário: ")
	b.WriteString(message)
	return b.String()
}

// JoinKnowledge 知识库内容以空行分隔
func JoinKnowledge(entries []models.KnowledgeEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Dispatch 处理一次聊天请求。
// ValidationError/NotFoundError 在任何外部调用和写入之前返回；
// 服务商失败返回 *llm.ProviderError，并已写入一条失败记录
func (d *ChatDispatcher) Dispatch(ctx context.Context, rawBotID, message string) (*ChatResult, error) {
	start := d.now()

	botID, err := ParseBotID(rawBotID)
	if err != nil {
		return nil, err
	}
	if err := d.validateMessage(message); err != nil {
		return nil, err
	}

	bot, err := d.store.GetBot(ctx, botID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "bot", ID: botID}
		}
		return nil, fmt.Errorf("load bot: %w", err)
	}
	settings := bot.Settings.Data()

	// 客户端断开不影响服务商调用和记录写入
	detached := context.WithoutCancel(ctx)

	provider := bot.Provider
	if provider == "" {
		provider = settings.ResolveProvider()
	}
	row := &models.ChatInteraction{
		BotID:       bot.ID,
		UserMessage: message,
		Model:       settings.Model,
		Provider:    string(provider),
	}

	entries, err := d.store.ListKnowledge(detached, bot.ID)
	if err != nil {
		err = fmt.Errorf("load knowledge: %w", err)
		d.persistFailure(detached, row, start, err)
		return nil, err
	}

	provider, adapter, err := d.providers.Resolve(provider)
	row.Provider = string(provider)
	if err != nil {
		d.persistFailure(detached, row, start, err)
		return nil, err
	}

	apiKey, err := d.keys.Resolve(detached, bot, provider)
	if err != nil {
		d.persistFailure(detached, row, start, err)
		return nil, err
	}

	prompt := BuildPrompt(settings.SystemPrompt, JoinKnowledge(entries), message)
	callCtx, cancel := context.WithTimeout(detached, d.cfg.ProviderTimeout)
	reply, err := adapter.Chat(callCtx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Options{
		Temperature:     settings.Temperature,
		MaxOutputTokens: settings.MaxTokens,
		Model:           settings.Model,
		APIKey:          apiKey,
	})
	cancel()
	latency := d.now().Sub(start)
	metrics.Global().ChatLatency.WithLabelValues(string(provider)).Observe(latency.Seconds())

	if err != nil {
		var perr *llm.ProviderError
		if !errors.As(err, &perr) {
			perr = llm.NewProviderError(provider, err, apiKey)
		}
		d.persistFailure(detached, row, start, perr)
		return nil, perr
	}

	row.BotResponse = reply.Content
	row.TokensUsed = reply.TokensUsed
	row.ResponseTimeMs = latency.Milliseconds()
	row.Success = true
	d.persist(detached, row)
	metrics.Global().ChatRequests.WithLabelValues(string(provider), "success").Inc()

	return &ChatResult{
		Response:   reply.Content,
		Provider:   provider,
		Model:      settings.Model,
		TokensUsed: reply.TokensUsed,
		Latency:    latency,
	}, nil
}

func (d *ChatDispatcher) persistFailure(ctx context.Context, row *models.ChatInteraction, start time.Time, cause error) {
	msg := cause.Error()
	row.BotResponse = ""
	row.Success = false
	row.ErrorMessage = &msg
	row.ResponseTimeMs = d.now().Sub(start).Milliseconds()
	metrics.Global().ChatRequests.WithLabelValues(row.Provider, "failure").Inc()
	log.Warn().
		Str("component", "dispatcher").
		Uint("bot_id", row.BotID).
		Str("provider", row.Provider).
		Str("error", msg).
		Msg("chat request failed")
	d.persist(ctx, row)
}

// persist 写入失败只记录日志，不改变已经确定的响应
func (d *ChatDispatcher) persist(ctx context.Context, row *models.ChatInteraction) {
	writeCtx, cancel := context.WithTimeout(ctx, d.cfg.PersistTimeout)
	defer cancel()
	if err := d.store.CreateInteraction(writeCtx, row); err != nil {
		perr := &PersistenceError{Err: err}
		metrics.Global().PersistenceFailures.Inc()
		log.Error().
			Str("component", "dispatcher").
			Uint("bot_id", row.BotID).
			Err(perr).
			Msg("failed to record interaction")
	}
}
