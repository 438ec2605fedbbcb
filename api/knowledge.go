package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"chatdesk/models"

	"github.com/gin-gonic/gin"
)

const maxKnowledgeFileSize = 5 << 20

// KnowledgeStore 知识库存储
type KnowledgeStore interface {
	GetBot(ctx context.Context, id uint) (*models.Bot, error)
	ListKnowledge(ctx context.Context, botID uint) ([]models.KnowledgeEntry, error)
	CreateKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error
	DeleteKnowledge(ctx context.Context, botID, id uint) error
}

// KnowledgeHandler 知识库处理器
type KnowledgeHandler struct {
	store KnowledgeStore
}

// NewKnowledgeHandler 创建知识库处理器
func NewKnowledgeHandler(st KnowledgeStore) *KnowledgeHandler {
	return &KnowledgeHandler{store: st}
}

// CreateKnowledgeRequest 直接提交文本
type CreateKnowledgeRequest struct {
	Content   string `json:"content" binding:"required"`
	SourceURL string `json:"source_url" binding:"omitempty,url"`
	FileName  string `json:"file_name"`
}

var allowedKnowledgeExt = map[string]bool{".txt": true, ".md": true, ".markdown": true, ".csv": true}

// Create 上传知识库条目
// @Summary 添加知识库条目
// @Description multipart 上传 file（txt/md/csv），或 JSON 提交 content
// @Tags 知识库
// @Accept json,mpfd
// @Produce json
// @Param id path int true "机器人 ID"
// @Param file formData file false "文本文件"
// @Param request body CreateKnowledgeRequest false "文本内容"
// @Success 201 {object} models.KnowledgeEntry
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/knowledge [post]
func (h *KnowledgeHandler) Create(c *gin.Context) {
	botID, ok := h.loadBotID(c)
	if !ok {
		return
	}

	entry := &models.KnowledgeEntry{BotID: botID}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			BadRequest(c, "missing file field")
			return
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedKnowledgeExt[ext] {
			BadRequest(c, "only .txt, .md and .csv files are supported")
			return
		}
		if fh.Size > maxKnowledgeFileSize {
			BadRequest(c, "file exceeds 5MB")
			return
		}
		f, err := fh.Open()
		if err != nil {
			InternalError(c, "Failed to read upload", err)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxKnowledgeFileSize+1))
		if err != nil {
			InternalError(c, "Failed to read upload", err)
			return
		}
		if !utf8.Valid(data) {
			BadRequest(c, "file must be UTF-8 text")
			return
		}
		entry.Content = string(data)
		entry.FileName = filepath.Base(fh.Filename)
	} else {
		var req CreateKnowledgeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, SafeErrorMessage(err, "content is required"))
			return
		}
		entry.Content = req.Content
		entry.SourceURL = req.SourceURL
		entry.FileName = req.FileName
	}

	if strings.TrimSpace(entry.Content) == "" {
		BadRequest(c, "content is empty")
		return
	}
	if err := h.store.CreateKnowledge(c.Request.Context(), entry); err != nil {
		InternalError(c, "Failed to save knowledge entry", err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// List 知识库条目列表
// @Summary 知识库列表
// @Tags 知识库
// @Produce json
// @Param id path int true "机器人 ID"
// @Success 200 {object} DataResponse{data=[]models.KnowledgeEntry}
// @Router /api/bots/{id}/knowledge [get]
func (h *KnowledgeHandler) List(c *gin.Context) {
	botID, ok := h.loadBotID(c)
	if !ok {
		return
	}
	entries, err := h.store.ListKnowledge(c.Request.Context(), botID)
	if err != nil {
		InternalError(c, "Failed to list knowledge", err)
		return
	}
	if entries == nil {
		entries = []models.KnowledgeEntry{}
	}
	Success(c, entries)
}

// Delete 删除知识库条目
// @Summary 删除知识库条目
// @Tags 知识库
// @Param id path int true "机器人 ID"
// @Param entryId path int true "条目 ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/bots/{id}/knowledge/{entryId} [delete]
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	botID, err := parseID(c.Param("id"), "id")
	if err != nil {
		respondError(c, err, "")
		return
	}
	entryID, err := parseID(c.Param("entryId"), "entryId")
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.store.DeleteKnowledge(c.Request.Context(), botID, entryID); err != nil {
		respondError(c, err, "Failed to delete knowledge entry")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *KnowledgeHandler) loadBotID(c *gin.Context) (uint, bool) {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		respondError(c, err, "")
		return 0, false
	}
	if _, err := h.store.GetBot(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to load bot")
		return 0, false
	}
	return id, true
}
