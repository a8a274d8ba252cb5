package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pitwall-go/internal/config"
	"pitwall-go/pkg/log"
)

// evalNotAvailable 是评估任务缺失或不可达时的固定回复。
const evalNotAvailable = "评估任务在当前环境不可用。"

// EvalTool 实现 run_eval：把评估委托给外部评估作业并转发其文本输出。
// 评估逻辑本身不在本服务内。
type EvalTool struct {
	cfg    config.EvalConfig
	client *http.Client
}

// NewEvalTool 创建 run_eval 工具。
func NewEvalTool(cfg config.EvalConfig) *EvalTool {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EvalTool{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Schema 返回工具定义。run_eval 不接受任何参数。
func (t *EvalTool) Schema() Schema {
	return Schema{
		Name:        "run_eval",
		Description: "触发离线评估作业，返回当前评分模型在历史分站上的准确率指标报告。",
	}
}

// Execute 调用外部评估端点。不可达或未配置时返回固定说明文字，不算错误。
func (t *EvalTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.cfg.URL == "" {
		return evalNotAvailable, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", t.cfg.URL, nil)
	if err != nil {
		log.Warnf("[EvalTool] 构造评估请求失败: %v", err)
		return evalNotAvailable, nil
	}

	resp, err := t.client.Do(req)
	if err != nil {
		log.Warnf("[EvalTool] 评估作业不可达: %v", err)
		return evalNotAvailable, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("[EvalTool] 评估作业返回非 200 状态: %s", resp.Status)
		return fmt.Sprintf("%s（状态: %s）", evalNotAvailable, resp.Status), nil
	}

	// 转发给模型的报告限制在 8KB 以内
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	if err != nil {
		log.Warnf("[EvalTool] 读取评估输出失败: %v", err)
		return evalNotAvailable, nil
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "评估作业执行完成，但没有输出。", nil
	}
	return text, nil
}
