// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"pitwall-go/internal/service"

	"github.com/gin-gonic/gin"
)

// HealthHandler 暴露服务健康信息，区分评分引擎
// 使用配置的系数集还是内置回退系数（降级运行）。
type HealthHandler struct {
	scoringService service.ScoringService
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(scoringService service.ScoringService) *HealthHandler {
	return &HealthHandler{scoringService: scoringService}
}

// Health 返回服务状态与评分模式。
func (h *HealthHandler) Health(c *gin.Context) {
	mode := "configured"
	if h.scoringService.UsingFallback() {
		mode = "fallback"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"scoring_mode": mode,
	})
}
