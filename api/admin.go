package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatdesk/config"
	"chatdesk/middleware"
	"chatdesk/models"
	"chatdesk/ratelimit"
	"chatdesk/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const adminUserID uint = 1

// SettingsStore 系统设置存储
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// RateLimitPersister 限流规则持久化（service.RateLimitSettings）
type RateLimitPersister interface {
	Save(ctx context.Context, class string, r ratelimit.Rule) error
}

// AdminHandler 后台管理处理器：登录、系统设置、限流规则
type AdminHandler struct {
	admin      config.AdminConfig
	expire     time.Duration
	settings   SettingsStore
	limiters   *ratelimit.Set
	rateLimits RateLimitPersister
}

// NewAdminHandler 创建后台管理处理器
func NewAdminHandler(cfg *config.Config, settings SettingsStore, limiters *ratelimit.Set, rateLimits RateLimitPersister) *AdminHandler {
	return &AdminHandler{
		admin:      cfg.Admin,
		expire:     cfg.JWT.ExpireTime,
		settings:   settings,
		limiters:   limiters,
		rateLimits: rateLimits,
	}
}

// AdminLoginRequest 管理员登录请求
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginResponse 登录成功返回的 token
type AdminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// SettingValue 系统设置
type SettingValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UpdateSettingRequest 更新系统设置
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// RateRuleView 单个类别的限流规则
type RateRuleView struct {
	WindowMs int64 `json:"windowMs" binding:"required,min=1"`
	Max      int   `json:"max" binding:"required,min=1"`
}

// AdminLogin 管理员登录
// @Summary 管理员登录
// @Description 校验配置中的管理员账号，返回 JWT
// @Tags 后台管理
// @Accept json
// @Produce json
// @Param request body AdminLoginRequest true "登录信息"
// @Success 200 {object} AdminLoginResponse
// @Failure 401 {object} ErrorResponse "用户名或密码错误"
// @Router /api/admin/login [post]
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "username and password are required")
		return
	}

	if h.admin.PasswordHash == "" {
		Error(c, http.StatusUnauthorized, "Invalid credentials", "admin login is disabled")
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.admin.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		log.Warn().Str("component", "admin").Str("ip", c.ClientIP()).Msg("admin login failed")
		Error(c, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	token, err := middleware.GenerateToken(adminUserID, h.admin.Username, h.expire)
	if err != nil {
		InternalError(c, "Failed to issue token", err)
		return
	}
	c.JSON(http.StatusOK, AdminLoginResponse{Token: token, ExpiresIn: int64(h.expire.Seconds())})
}

// GetSetting 读取系统设置，密钥类设置打码
// @Summary 读取系统设置
// @Tags 后台管理
// @Produce json
// @Security BearerAuth
// @Param key path string true "设置键"
// @Success 200 {object} SettingValue
// @Failure 404 {object} ErrorResponse
// @Router /api/admin/settings/{key} [get]
func (h *AdminHandler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	value, ok, err := h.settings.GetSetting(c.Request.Context(), key)
	if err != nil {
		InternalError(c, "Failed to load setting", err)
		return
	}
	if !ok {
		NotFound(c, "Setting not found")
		return
	}
	if models.IsSecretSetting(key) {
		value = maskSecret(value)
	}
	c.JSON(http.StatusOK, SettingValue{Key: key, Value: value})
}

// PutSetting 写入系统设置
// @Summary 写入系统设置
// @Description 限流相关的键请使用 /api/admin/rate-limits
// @Tags 后台管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "设置键"
// @Param request body UpdateSettingRequest true "设置值"
// @Success 200 {object} SettingValue
// @Failure 400 {object} ErrorResponse
// @Router /api/admin/settings/{key} [put]
func (h *AdminHandler) PutSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" || len(key) > 100 {
		BadRequest(c, "invalid setting key")
		return
	}
	if strings.HasPrefix(key, "rate_limit.") {
		BadRequest(c, "use /api/admin/rate-limits to change rate limits")
		return
	}
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "value must be a string")
		return
	}
	if err := h.settings.SetSetting(c.Request.Context(), key, req.Value); err != nil {
		InternalError(c, "Failed to save setting", err)
		return
	}
	value := req.Value
	if models.IsSecretSetting(key) {
		value = maskSecret(value)
	}
	c.JSON(http.StatusOK, SettingValue{Key: key, Value: value})
}

// GetRateLimits 当前限流规则
// @Summary 限流规则
// @Tags 后台管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]RateRuleView
// @Router /api/admin/rate-limits [get]
func (h *AdminHandler) GetRateLimits(c *gin.Context) {
	c.JSON(http.StatusOK, h.rateLimitViews())
}

// PutRateLimits 更新限流规则，保存后立即生效
// @Summary 更新限流规则
// @Tags 后台管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body map[string]RateRuleView true "类别到规则的映射，例如 {\"chat\":{\"windowMs\":60000,\"max\":30}}"
// @Success 200 {object} map[string]RateRuleView
// @Failure 400 {object} ErrorResponse
// @Router /api/admin/rate-limits [put]
func (h *AdminHandler) PutRateLimits(c *gin.Context) {
	var req map[string]RateRuleView
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid rate limit payload"))
		return
	}
	if len(req) == 0 {
		BadRequest(c, "no rate limit classes given")
		return
	}

	rules := make(map[string]ratelimit.Rule, len(req))
	for class, v := range req {
		if h.limiters.Get(class) == nil {
			BadRequest(c, "unknown rate limit class: "+class)
			return
		}
		r := ratelimit.Rule{Window: time.Duration(v.WindowMs) * time.Millisecond, Max: v.Max}
		if err := r.Validate(); err != nil {
			BadRequest(c, class+": "+err.Error())
			return
		}
		rules[class] = r
	}

	for class, r := range rules {
		if err := h.rateLimits.Save(c.Request.Context(), class, r); err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				BadRequest(c, verr.Error())
				return
			}
			InternalError(c, "Failed to save rate limits", err)
			return
		}
		if err := h.limiters.Update(class, r); err != nil {
			BadRequest(c, err.Error())
			return
		}
		log.Info().Str("component", "admin").Str("class", class).Int64("window_ms", r.Window.Milliseconds()).Int("max", r.Max).Msg("rate limit updated")
	}
	c.JSON(http.StatusOK, h.rateLimitViews())
}

func (h *AdminHandler) rateLimitViews() map[string]RateRuleView {
	out := make(map[string]RateRuleView)
	for class, r := range h.limiters.Rules() {
		out[class] = RateRuleView{WindowMs: r.Window.Milliseconds(), Max: r.Max}
	}
	return out
}
