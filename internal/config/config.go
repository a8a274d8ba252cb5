// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Eval      EvalConfig      `mapstructure:"eval"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers       string `mapstructure:"brokers"`
	FeaturesTopic string `mapstructure:"features_topic"`
	AuditTopic    string `mapstructure:"audit_topic"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Model      string              `mapstructure:"model"`
	Generation LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// AgentConfig 存储 Agent 工具循环相关的配置。
type AgentConfig struct {
	// MaxRounds 限制单次请求内模型调用的最大轮数，0 表示使用默认值 3。
	MaxRounds int `mapstructure:"max_rounds"`
	// ModelTimeoutSeconds 单次模型调用的超时时间（秒）。
	ModelTimeoutSeconds int `mapstructure:"model_timeout_seconds"`
	// ToolTimeoutSeconds 单次工具执行的超时时间（秒）。
	ToolTimeoutSeconds int `mapstructure:"tool_timeout_seconds"`
	// SeasonContext 注入系统提示词的当前赛季背景说明。
	SeasonContext string `mapstructure:"season_context"`
}

// ScoringConfig 存储评分引擎相关的配置。
type ScoringConfig struct {
	// ModelVersion 指定激活的系数集版本，数据库中查不到时回退到内置系数。
	ModelVersion string `mapstructure:"model_version"`
}

// RateLimitConfig 存储限流相关的配置。
type RateLimitConfig struct {
	// Backend 可选 "memory" 或 "redis"，多实例部署时应使用 redis。
	Backend       string `mapstructure:"backend"`
	WindowSeconds int    `mapstructure:"window_seconds"`
	MaxRequests   int    `mapstructure:"max_requests"`
}

// EvalConfig 存储外部评估任务的配置。
type EvalConfig struct {
	// URL 为空时 run_eval 工具返回“当前环境不可用”。
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
