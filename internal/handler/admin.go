package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propwatch/internal/cache"
	"propwatch/internal/repository"
)

// RefreshEnqueuer is the slice of the queue client the admin API needs.
type RefreshEnqueuer interface {
	EnqueueOnDemand(ctx context.Context, propertyID int64, providers []string) error
}

type AdminHandler struct {
	Repo     repository.Repository
	Enqueuer RefreshEnqueuer
	Cache    *cache.Cache
	Logger   *zap.Logger
}

func (h *AdminHandler) Register(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.POST("/properties/:id/refresh", h.refreshProperty)
	admin.GET("/ingestion-runs", h.listIngestionRuns)
	admin.GET("/sync-state", h.listSyncStates)
	admin.DELETE("/api-cache/:provider", h.purgeCache)
}

type refreshRequest struct {
	Providers []string `json:"providers"`
}

func (h *AdminHandler) refreshProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, "invalid property id")
		return
	}

	var req refreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	prop, err := h.Repo.GetProperty(c.Request.Context(), id)
	if err != nil {
		h.Logger.Error("failed to load property", zap.Int64("propertyId", id), zap.Error(err))
		Error(c, http.StatusInternalServerError, "failed to load property")
		return
	}
	if prop == nil {
		Error(c, http.StatusNotFound, "property not found")
		return
	}

	if err := h.Enqueuer.EnqueueOnDemand(c.Request.Context(), id, req.Providers); err != nil {
		h.Logger.Error("failed to enqueue refresh", zap.Int64("propertyId", id), zap.Error(err))
		Error(c, http.StatusInternalServerError, "failed to enqueue refresh")
		return
	}

	c.JSON(http.StatusAccepted, apiResponse{
		Code:    0,
		Message: "refresh enqueued",
		Data:    gin.H{"propertyId": id, "providers": req.Providers},
	})
}

func (h *AdminHandler) listIngestionRuns(c *gin.Context) {
	params := repository.ListIngestionRunsParams{
		JobType: c.Query("jobType"),
		Status:  c.Query("status"),
	}
	if raw := c.Query("propertyId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid propertyId")
			return
		}
		params.PropertyID = &id
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if pageSize < 1 {
		pageSize = 50
	}
	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	runs, total, err := h.Repo.ListIngestionRuns(c.Request.Context(), params)
	if err != nil {
		h.Logger.Error("failed to list ingestion runs", zap.Error(err))
		Error(c, http.StatusInternalServerError, "failed to list ingestion runs")
		return
	}

	Ok(c, runs, map[string]any{
		"page":     page,
		"pageSize": pageSize,
		"total":    total,
	})
}

func (h *AdminHandler) listSyncStates(c *gin.Context) {
	states, err := h.Repo.ListSyncStates(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to list sync states", zap.Error(err))
		Error(c, http.StatusInternalServerError, "failed to list sync states")
		return
	}
	Ok(c, states, nil)
}

func (h *AdminHandler) purgeCache(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		Error(c, http.StatusBadRequest, "missing provider")
		return
	}
	removed, err := h.Cache.Purge(c.Request.Context(), provider)
	if err != nil {
		h.Logger.Error("failed to purge cache", zap.String("provider", provider), zap.Error(err))
		Error(c, http.StatusInternalServerError, "failed to purge cache")
		return
	}
	Ok(c, gin.H{"provider": provider, "removed": removed}, nil)
}
