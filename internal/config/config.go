package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Line      LineConfig `mapstructure:"line"`
	Database  DatabaseConfig
	Bank      BankConfig      `mapstructure:"bank"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// LineConfig LINE Messaging API 凭证，webhook 签名校验和回复都依赖它
type LineConfig struct {
	ChannelSecret string `mapstructure:"channel_secret"`
	ChannelToken  string `mapstructure:"channel_token"`
}

type DatabaseConfig struct {
	// sqlite 数据库文件路径
	Path string
}

type BankConfig struct {
	// 题库 JSON 文件所在目录
	Dir string
	// 用户从未选择题库时的兜底题库名，文件不存在时按 BankNotFound 处理
	DefaultBank string `mapstructure:"default_bank"`
	// 错题练习每次抽取的候选上限
	WrongQuestionLimit int `mapstructure:"wrong_question_limit"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("QUIZBOT")
	viper.AutomaticEnv()

	// LINE 凭证优先从环境变量读取
	viper.BindEnv("line.channel_secret", "LINE_CHANNEL_SECRET")
	viper.BindEnv("line.channel_token", "LINE_CHANNEL_TOKEN")

	// Database
	viper.BindEnv("database.path", "DATABASE_PATH")

	// Bank
	viper.BindEnv("bank.dir", "BANK_DIR")
	viper.BindEnv("bank.default_bank", "BANK_DEFAULT")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("database.path", "data/quizbot.db")
	viper.SetDefault("bank.dir", "database")
	viper.SetDefault("bank.default_bank", "技術")
	viper.SetDefault("bank.wrong_question_limit", 10)
	viper.SetDefault("rate_limit.max_requests", 600)
	viper.SetDefault("rate_limit.window_minutes", 1)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Line.ChannelSecret == "" || cfg.Line.ChannelToken == "" {
		return nil, fmt.Errorf("line channel_secret / channel_token is required")
	}

	return &cfg, nil
}
