package handler

import (
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/service"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/gin-gonic/gin"
)

// StatsProvider is implemented by cache backends that expose pool stats.
type StatsProvider interface {
	PoolStats() map[string]any
}

type CacheHandler struct {
	cacheService *service.CacheService
	stats        StatsProvider
}

// NewCacheHandler takes a nil stats provider when the in-memory cache is
// in use.
func NewCacheHandler(cacheService *service.CacheService, stats StatsProvider) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		stats:        stats,
	}
}

// InvalidateCacheRequest names the place entries and notification alert
// counters to drop.
type InvalidateCacheRequest struct {
	Places []string `json:"places" binding:"omitempty,dive,required"`
	Users  []uint   `json:"users" binding:"omitempty,dive,required"`
}

func (h *CacheHandler) InvalidateCache(c *gin.Context) {
	ctx := requestContext(c, "InvalidateCache")

	var req InvalidateCacheRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	keys := make([]string, 0, len(req.Places)+len(req.Users))
	for _, id := range req.Places {
		keys = append(keys, service.PlaceCacheKey(id))
	}
	for _, id := range req.Users {
		keys = append(keys, service.AlertCacheKey(id))
	}
	h.cacheService.Invalidate(ctx, keys...)

	logger.InfoWithContext(ctx, "Cache invalidated").Int("keys", len(keys)).Log()
	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{"invalidated": len(keys)}))
}

func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{"backend": "memory"}))
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{
		"backend": "redis",
		"pool":    h.stats.PoolStats(),
	}))
}
