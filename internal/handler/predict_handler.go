// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"pitwall-go/internal/service"
	"pitwall-go/internal/tool"
	"pitwall-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// PredictHandler 负责处理预测查询请求。
type PredictHandler struct {
	scoringService service.ScoringService
	audit          tool.AuditFunc
}

// NewPredictHandler 创建一个新的 PredictHandler 实例。audit 允许为 nil。
func NewPredictHandler(scoringService service.ScoringService, audit tool.AuditFunc) *PredictHandler {
	return &PredictHandler{scoringService: scoringService, audit: audit}
}

// Predict 是处理预测请求的 Gin 处理函数。
// race_id 必填且为规范 ID；自由文本的归一化走 agent 路径。
func (h *PredictHandler) Predict(c *gin.Context) {
	raceID := c.Query("race_id")
	driverID := c.Query("driver_id")

	if raceID == "" {
		log.Warnf("[PredictHandler] 请求缺少 race_id 参数")
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 race_id 参数", "data": nil})
		return
	}

	if driverID != "" {
		prediction, err := h.scoringService.PredictDriver(raceID, driverID)
		if err != nil {
			log.Errorf("[PredictHandler] 预测失败, race=%s, driver=%s, error: %v", raceID, driverID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "预测服务异常", "data": nil})
			return
		}
		if prediction == nil {
			c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "no data", "data": nil})
			return
		}
		if h.audit != nil {
			h.audit(raceID, driverID, prediction.Probability)
		}
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": prediction})
		return
	}

	predictions, err := h.scoringService.PredictRace(raceID)
	if err != nil {
		log.Errorf("[PredictHandler] 预测失败, race=%s, error: %v", raceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "预测服务异常", "data": nil})
		return
	}
	if len(predictions) == 0 {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "no data", "data": nil})
		return
	}
	if h.audit != nil {
		h.audit(raceID, "", 0)
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": predictions})
}
