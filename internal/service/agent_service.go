// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pitwall-go/internal/config"
	"pitwall-go/internal/tool"
	"pitwall-go/pkg/llm"
	"pitwall-go/pkg/log"
)

// ErrEmptyQuery 表示调用方传入了空白查询，属于输入错误（4xx），不会触发模型调用。
var ErrEmptyQuery = errors.New("查询内容为空")

// stoppedSentinel 是达到轮数上限仍未得到最终回答时的固定回复。
const stoppedSentinel = "经过多轮工具调用仍未得到最终回答，请换一种方式提问。"

const (
	defaultMaxRounds    = 3
	defaultModelTimeout = 60 * time.Second
	defaultToolTimeout  = 15 * time.Second
)

// AgentService 驱动模型完成“提问 → 工具调用 → 工具结果 → 再提问”的有界循环。
// 对话状态仅存在于单次调用内，请求结束即销毁。
type AgentService interface {
	// Ask 缓冲模式：返回完整的最终回答。
	Ask(ctx context.Context, query string) (string, error)
	// AskStream 流式模式：最终回答的分块实时写入 writer，同时返回完整文本。
	AskStream(ctx context.Context, query string, writer llm.MessageWriter) (string, error)
}

type agentService struct {
	llmClient llm.Client
	registry  *tool.Registry
	cfg       config.AgentConfig
}

// NewAgentService 创建一个新的 AgentService 实例。
func NewAgentService(llmClient llm.Client, registry *tool.Registry, cfg config.AgentConfig) AgentService {
	return &agentService{llmClient: llmClient, registry: registry, cfg: cfg}
}

func (s *agentService) Ask(ctx context.Context, query string) (string, error) {
	return s.AskStream(ctx, query, nil)
}

func (s *agentService) AskStream(ctx context.Context, query string, writer llm.MessageWriter) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	messages := []llm.Message{
		{Role: "system", Content: s.buildSystemPrompt()},
		{Role: "user", Content: query},
	}

	maxRounds := s.cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	for round := 1; round <= maxRounds; round++ {
		turn, err := s.callModel(ctx, messages, writer)
		if err != nil {
			return "", fmt.Errorf("模型调用失败: %w", err)
		}

		// 只接受注册表内的工具名，幻觉名称直接丢弃、从不执行
		accepted := make([]llm.ToolCall, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			if _, ok := s.registry.Get(call.Name); ok {
				accepted = append(accepted, call)
			} else {
				log.Warnf("[AgentService] 丢弃未注册的工具调用: %s", call.Name)
			}
		}

		if len(accepted) == 0 {
			// 没有（有效的）工具调用：content 即最终回答
			return turn.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   turn.Content,
			ToolCalls: accepted,
		})

		// 按调用顺序依次执行并追加结果，保证下一轮上下文的顺序可复现
		for _, call := range accepted {
			log.Infof("[AgentService] 第 %d 轮执行工具: %s %s", round, call.Name, call.Arguments)
			result := s.dispatch(ctx, call)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	log.Warnf("[AgentService] 达到 %d 轮上限仍无最终回答，返回固定提示", maxRounds)
	return stoppedSentinel, nil
}

func (s *agentService) callModel(ctx context.Context, messages []llm.Message, writer llm.MessageWriter) (*llm.ChatTurn, error) {
	timeout := time.Duration(s.cfg.ModelTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.llmClient.StreamChatTools(mctx, messages, s.registry.Definitions(), nil, writer)
}

// dispatch 执行一次已接受的工具调用。参数解析/校验失败和执行失败
// 都折叠成描述性的工具结果文本，循环继续而不是中断请求。
func (s *agentService) dispatch(ctx context.Context, call llm.ToolCall) string {
	t, _ := s.registry.Get(call.Name)

	args := map[string]interface{}{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("工具参数不是合法 JSON: %v", err)
		}
	}
	if err := tool.ValidateArgs(args, t.Schema()); err != nil {
		return fmt.Sprintf("工具参数校验失败: %v", err)
	}

	timeout := time.Duration(s.cfg.ToolTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := t.Execute(tctx, args)
	if err != nil {
		log.Errorf("[AgentService] 工具 %s 执行失败: %v", call.Name, err)
		return fmt.Sprintf("工具 %s 执行失败: %v", call.Name, err)
	}
	return result
}

func (s *agentService) buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("你是一名 F1 赛季数据助手，回答用户关于车手和分站的自然语言问题。\n")
	b.WriteString("当用户询问某车手或某分站拿积分的可能性时，调用 get_prediction 工具，")
	b.WriteString("直接把用户提到的车手/分站原文作为参数传入，不要自行编造规范 ID。\n")
	b.WriteString("当用户询问预测模型的评估指标时，调用 run_eval 工具。\n")
	b.WriteString("工具返回未命中提示时，向用户转述有效选项并请求澄清。\n")
	b.WriteString("回答引用工具给出的概率和主要影响因素，保持简洁，不要虚构数字。")
	if s.cfg.SeasonContext != "" {
		b.WriteString("\n\n当前赛季背景：")
		b.WriteString(s.cfg.SeasonContext)
	}
	return b.String()
}
