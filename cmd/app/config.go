package main

import (
	"fmt"
	"strings"
	"time"

	"trailquest/internal/remote"
	"trailquest/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database  repository.Config `yaml:"database"`
	Queue     QueueConfig       `yaml:"queue"`
	Media     MediaConfig       `yaml:"media"`
	Hints     remote.Config     `yaml:"hints"`
	Engine    EngineConfig      `yaml:"engine"`
	Companion CompanionConfig   `yaml:"companion"`
	Server    ServerConfig      `yaml:"server"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`

	LogLevel string `yaml:"logLevel"`
}

type QueueConfig struct {
	Path string `yaml:"path"`
}

type MediaConfig struct {
	BaseURL string        `yaml:"baseURL"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
	// LocalRoot is the directory captured media references are relative to.
	LocalRoot string `yaml:"localRoot"`
}

type EngineConfig struct {
	DefaultRevealRadius float64       `yaml:"defaultRevealRadius"`
	BadgeDelay          time.Duration `yaml:"badgeDelay"`
	QuestSize           int           `yaml:"questSize"`
	CompletionBonus     int           `yaml:"completionBonus"`
	CatalogTTL          time.Duration `yaml:"catalogTTL"`
}

type CompanionConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"botToken"`
	Debug    bool   `yaml:"debug"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	DebugMode        bool   `yaml:"debugMode"`
}

func LoadConfig() (*Config, error) {
	return loadConfig(configPath)
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(path)
	v.SetConfigType(configFormat)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.path", "upload_queue.db")
	v.SetDefault("media.timeout", remote.DefaultTimeout)
	v.SetDefault("media.localRoot", "./media")
	v.SetDefault("hints.timeout", 5*time.Second)
	v.SetDefault("engine.defaultRevealRadius", 50.0)
	v.SetDefault("engine.badgeDelay", 2500*time.Millisecond)
	v.SetDefault("engine.questSize", 5)
	v.SetDefault("engine.completionBonus", 50)
	v.SetDefault("engine.catalogTTL", 10*time.Minute)
	v.SetDefault("companion.enabled", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("logLevel", "info")
}
