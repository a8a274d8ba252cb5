// Package tool 定义了暴露给模型的固定工具集合及其参数校验。
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"pitwall-go/pkg/llm"
)

// Tool 是所有工具的通用接口。
type Tool interface {
	Schema() Schema
	// Execute 执行工具并返回给模型看的文本结果。
	// 业务层面的“未命中/无数据”属于正常返回值，error 只表示执行本身失败。
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// ParameterSpec 描述单个参数的类型与说明。
type ParameterSpec struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Schema 以
// provider 无关的方式描述一个工具：名称、给模型看的说明、参数定义。
type Schema struct {
	Name        string
	Description string
	Properties  map[string]ParameterSpec
	Required    []string
}

// Definition 将 Schema 转换为下发给模型的工具定义。
// additionalProperties=false 与 ValidateArgs 的未知字段拒绝保持一致。
func (s Schema) Definition() llm.ToolDefinition {
	params := map[string]interface{}{
		"type":                 "object",
		"properties":           s.Properties,
		"additionalProperties": false,
	}
	if s.Properties == nil {
		params["properties"] = map[string]ParameterSpec{}
	}
	if len(s.Required) > 0 {
		params["required"] = s.Required
	}
	raw, _ := json.Marshal(params)
	return llm.ToolDefinition{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  raw,
	}
}

// ValidateArgs 在执行前校验模型给出的参数：
// 必填字段齐全、未知字段拒绝、基础类型匹配。
func ValidateArgs(args map[string]interface{}, schema Schema) error {
	if args == nil {
		args = map[string]interface{}{}
	}

	for _, field := range schema.Required {
		if _, exists := args[field]; !exists {
			return fmt.Errorf("缺少必填参数: %s", field)
		}
	}

	for key, value := range args {
		spec, ok := schema.Properties[key]
		if !ok {
			return fmt.Errorf("未知参数: %s", key)
		}
		if err := validateType(value, spec.Type); err != nil {
			return fmt.Errorf("参数 %s: %w", key, err)
		}
	}

	return nil
}

func validateType(value interface{}, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		switch value.(type) {
		case float64, float32, int, int64, json.Number:
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	default:
		return fmt.Errorf("不支持的参数类型 %q", expected)
	}
	return fmt.Errorf("期望 %s，实际为 %T", expected, value)
}
