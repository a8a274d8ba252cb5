// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pitwall-go/internal/service"
	"pitwall-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// AgentHandler 负责 agent 问答的 HTTP 与 WebSocket 入口。
type AgentHandler struct {
	agentService service.AgentService
}

// NewAgentHandler 创建一个新的 AgentHandler 实例。
func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

type askRequest struct {
	Query string `json:"query"`
}

// Ask 处理缓冲模式的问答请求。
// 模型最终输出若是 JSON 对象则按结构化数据返回，否则返回原始字符串。
func (h *AgentHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求体", "data": nil})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query 不能为空", "data": nil})
		return
	}

	answer, err := h.agentService.Ask(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "query 不能为空", "data": nil})
			return
		}
		log.Errorf("[AgentHandler] 问答处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "AI服务暂时不可用，请稍后重试", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": structuredOrString(answer)})
}

// structuredOrString 尝试把最终回答解析为 JSON 对象，失败则按字符串返回。
func structuredOrString(answer string) interface{} {
	trimmed := strings.TrimSpace(answer)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return obj
		}
	}
	return answer
}

// HandleWS 处理流式问答的 WebSocket 连接。
// 客户端每发送一条文本即一次提问，回答分块以 {"chunk":...} 帧下发，
// 结束后跟随一条 completion 通知。
func (h *AgentHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立: %s", c.ClientIP())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		query := strings.TrimSpace(string(message))
		if query == "" {
			writeJSON(conn, map[string]string{"error": "query 不能为空"})
			continue
		}

		interceptor := &wsChunkWriter{conn: conn}
		// 连接断开时 Request.Context 取消，循环停止发起后续模型/工具调用
		if _, err := h.agentService.AskStream(c.Request.Context(), query, interceptor); err != nil {
			log.Errorf("[AgentHandler] 流式问答失败: %v", err)
			writeJSON(conn, map[string]string{"error": "AI服务暂时不可用，请稍后重试"})
		}
		sendCompletion(conn)
	}
}

// wsChunkWriter 把模型的流式分块包装成 {"chunk":"..."} 帧下发。
type wsChunkWriter struct {
	conn *websocket.Conn
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsChunkWriter) WriteMessage(messageType int, data []byte) error {
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(conn *websocket.Conn) {
	writeJSON(conn, map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"message":   "响应已完成",
		"timestamp": time.Now().UnixMilli(),
		"date":      time.Now().Format("2006-01-02T15:04:05"),
	})
}

func writeJSON(conn *websocket.Conn, v interface{}) {
	b, _ := json.Marshal(v)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
