package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Tutor    TutorConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LLMConfig struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// TutorConfig carries the adaptive engine knobs.
type TutorConfig struct {
	StartingTier      string
	MasteryStreak     int
	MaxHierarchyDepth int
	MinSubtopics      int
	MaxSubtopics      int
	QuestionsPerLeaf  map[string]int
	IngestConcurrency int
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LoadConfig reads configuration from config.yaml with environment
// variable overrides.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("SP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  time.Duration(viper.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("server.write_timeout")) * time.Second,
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		LLM: LLMConfig{
			APIKey:       viper.GetString("llm.api_key"),
			Model:        viper.GetString("llm.model"),
			Timeout:      time.Duration(viper.GetInt("llm.timeout")) * time.Second,
			MaxRetries:   viper.GetInt("llm.max_retries"),
			RetryBackoff: time.Duration(viper.GetInt("llm.retry_backoff")) * time.Second,
		},
		Tutor: TutorConfig{
			StartingTier:      viper.GetString("tutor.starting_tier"),
			MasteryStreak:     viper.GetInt("tutor.mastery_streak"),
			MaxHierarchyDepth: viper.GetInt("tutor.max_hierarchy_depth"),
			MinSubtopics:      viper.GetInt("tutor.min_subtopics"),
			MaxSubtopics:      viper.GetInt("tutor.max_subtopics"),
			QuestionsPerLeaf: map[string]int{
				"beginner":     viper.GetInt("tutor.questions_per_leaf.beginner"),
				"intermediate": viper.GetInt("tutor.questions_per_leaf.intermediate"),
				"advanced":     viper.GetInt("tutor.questions_per_leaf.advanced"),
			},
			IngestConcurrency: viper.GetInt("tutor.ingest_concurrency"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
	}

	// The bare Google SDK variable wins over the config file so deployments
	// can keep the key out of yaml entirely.
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("database.path", "data/smart_practice.db")
	viper.SetDefault("llm.model", "gemini-2.0-flash-lite")
	viper.SetDefault("llm.timeout", 30)
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.retry_backoff", 2)
	viper.SetDefault("tutor.starting_tier", "intermediate")
	viper.SetDefault("tutor.mastery_streak", 3)
	viper.SetDefault("tutor.max_hierarchy_depth", 3)
	viper.SetDefault("tutor.min_subtopics", 3)
	viper.SetDefault("tutor.max_subtopics", 5)
	viper.SetDefault("tutor.questions_per_leaf", map[string]int{
		"beginner":     2,
		"intermediate": 2,
		"advanced":     1,
	})
	viper.SetDefault("tutor.ingest_concurrency", 4)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
}
