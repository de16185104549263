package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Synthesis SynthesisConfig
	Analytics AnalyticsConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	RateLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	ReportTTLSec int
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type SynthesisConfig struct {
	BatchSize           int
	BatchDelayMs        int
	MaxContentChars     int
	ConfidenceThreshold float64
	PreviewSize         int
}

type AnalyticsConfig struct {
	SessionWindow       int
	SentimentSampleSize int
	SentimentTimeoutSec int
	WordcloudSize       int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/chatforge")

	viper.SetEnvPrefix("CHATFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 5242880)
	viper.SetDefault("server.rateLimit", 30)

	viper.SetDefault("sqlite.path", "./data/chatforge.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.reportTTLSec", 300)

	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)

	viper.SetDefault("synthesis.batchSize", 25)
	viper.SetDefault("synthesis.batchDelayMs", 1000)
	viper.SetDefault("synthesis.maxContentChars", 12000)
	viper.SetDefault("synthesis.confidenceThreshold", 0.3)
	viper.SetDefault("synthesis.previewSize", 5)

	viper.SetDefault("analytics.sessionWindow", 100)
	viper.SetDefault("analytics.sentimentSampleSize", 20)
	viper.SetDefault("analytics.sentimentTimeoutSec", 10)
	viper.SetDefault("analytics.wordcloudSize", 50)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
