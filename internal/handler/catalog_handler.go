// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"pitwall-go/internal/service"
	"pitwall-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// CatalogHandler 暴露车手与分站的参照目录（归一化未命中时的“有效选项”来源）。
type CatalogHandler struct {
	entityService service.EntityService
}

// NewCatalogHandler 创建一个新的 CatalogHandler 实例。
func NewCatalogHandler(entityService service.EntityService) *CatalogHandler {
	return &CatalogHandler{entityService: entityService}
}

// ListDrivers 返回全部车手。
func (h *CatalogHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.entityService.ListDrivers()
	if err != nil {
		log.Errorf("[CatalogHandler] 读取车手目录失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "目录服务异常", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": drivers})
}

// ListRaces 返回全部分站。
func (h *CatalogHandler) ListRaces(c *gin.Context) {
	races, err := h.entityService.ListRaces()
	if err != nil {
		log.Errorf("[CatalogHandler] 读取分站目录失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "目录服务异常", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": races})
}
