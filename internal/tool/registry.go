package tool

import (
	"sort"

	"pitwall-go/pkg/llm"
	"pitwall-go/pkg/log"
)

// Registry 管理可用工具。工具集合在启动时注册后不再变化，
// 调度只按名称查找，名称不在表内的调用由调用方直接丢弃。
type Registry struct {
	tools map[string]Tool
}

// NewRegistry 创建一个空的工具注册表。
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register 注册一个工具，重名时后注册的覆盖先注册的。
func (r *Registry) Register(t Tool) {
	schema := t.Schema()
	log.Infof("注册工具: %s", schema.Name)
	r.tools[schema.Name] = t
}

// Get 按名称查找工具。
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions 返回全部工具的模型侧定义，按名称排序保证请求内容稳定。
func (r *Registry) Definitions() []llm.ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Schema().Definition())
	}
	return defs
}
