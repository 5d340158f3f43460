package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tap_miniapp/internal/model"
	"tap_miniapp/internal/repository"
	"tap_miniapp/internal/service"
	"tap_miniapp/pkg/auth"
	"tap_miniapp/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
	envPrefix    = "APP"
)

type Config struct {
	Database repository.Config `mapstructure:"database"`
	Server   ServerConfig      `mapstructure:"server"`

	TelegramAuth TelegramAuthConfig   `mapstructure:"telegramAuth"`
	Ledger       service.LedgerConfig `mapstructure:"ledger"`
	Catalog      CatalogConfig        `mapstructure:"catalog"`
	Avatars      AvatarsConfig        `mapstructure:"avatars"`

	LogLevel string            `mapstructure:"logLevel"`
	Log      logger.FileConfig `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         string   `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string        `mapstructure:"telegramBotToken"`
	MaxAge           time.Duration `mapstructure:"maxAge"`
	EnforceFreshness bool          `mapstructure:"enforceFreshness"`
	EnforceOwnership bool          `mapstructure:"enforceOwnership"`
	AdminIDs         []int64       `mapstructure:"adminIDs"`
}

func (c TelegramAuthConfig) Auth() auth.Config {
	return auth.Config{
		BotToken:         c.TelegramBotToken,
		MaxAge:           c.MaxAge,
		EnforceFreshness: c.EnforceFreshness,
	}
}

type AvatarsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type CatalogConfig struct {
	Boosts []BoostSeed `mapstructure:"boosts"`
	Tasks  []TaskSeed  `mapstructure:"tasks"`
}

type BoostSeed struct {
	ID            int64  `mapstructure:"id"`
	Name          string `mapstructure:"name"`
	Description   string `mapstructure:"description"`
	BaseCost      int64  `mapstructure:"baseCost"`
	CostPerLevel  string `mapstructure:"costPerLevel"`
	BaseValue     int64  `mapstructure:"baseValue"`
	ValuePerLevel int64  `mapstructure:"valuePerLevel"`
	MaxLevel      int    `mapstructure:"maxLevel"`
}

type TaskSeed struct {
	ID          int64  `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Icon        string `mapstructure:"icon"`
	Reward      int64  `mapstructure:"reward"`
}

var defaultBoosts = []BoostSeed{
	{ID: 1, Name: "tap", Description: "Coins earned per tap", BaseCost: 10, CostPerLevel: "5", BaseValue: 1, ValuePerLevel: 1, MaxLevel: 10},
	{ID: 2, Name: "maximizer", Description: "Energy capacity", BaseCost: 20, CostPerLevel: "10", BaseValue: 1000, ValuePerLevel: 500, MaxLevel: 10},
	{ID: 3, Name: "charger", Description: "Energy recharge speed", BaseCost: 50, CostPerLevel: "25", BaseValue: 1, ValuePerLevel: 1, MaxLevel: 5},
}

// Models converts the seed rows into catalog entries.
func (c CatalogConfig) Models() ([]*model.Boost, []*model.Task, error) {
	boosts := make([]*model.Boost, 0, len(c.Boosts))
	for _, b := range c.Boosts {
		costPerLevel := decimal.Zero
		if b.CostPerLevel != "" {
			var err error
			costPerLevel, err = decimal.NewFromString(b.CostPerLevel)
			if err != nil {
				return nil, nil, fmt.Errorf("boost %q: invalid costPerLevel: %w", b.Name, err)
			}
		}
		if b.Name == "" || b.MaxLevel < 1 || b.BaseCost < 0 || costPerLevel.IsNegative() {
			return nil, nil, fmt.Errorf("boost %d: name, maxLevel >= 1 and non-negative costs are required", b.ID)
		}

		boosts = append(boosts, &model.Boost{
			ID:            b.ID,
			Name:          b.Name,
			Description:   b.Description,
			BaseCost:      b.BaseCost,
			CostPerLevel:  costPerLevel,
			BaseValue:     b.BaseValue,
			ValuePerLevel: b.ValuePerLevel,
			MaxLevel:      b.MaxLevel,
		})
	}

	tasks := make([]*model.Task, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		if t.Name == "" || t.Reward < 0 {
			return nil, nil, fmt.Errorf("task %d: name and non-negative reward are required", t.ID)
		}
		tasks = append(tasks, &model.Task{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Icon:        t.Icon,
			Reward:      t.Reward,
		})
	}

	return boosts, tasks, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowOrigins", []string{})

	v.SetDefault("database.driver", repository.DriverPgx)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "tap_miniapp")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.queryTimeout", 5*time.Second)
	v.SetDefault("database.ensureSchema", true)

	v.SetDefault("telegramAuth.telegramBotToken", "")
	v.SetDefault("telegramAuth.maxAge", auth.DefaultMaxAge)
	v.SetDefault("telegramAuth.enforceFreshness", true)
	v.SetDefault("telegramAuth.enforceOwnership", true)
	v.SetDefault("telegramAuth.adminIDs", []int64{})

	v.SetDefault("ledger.monotonicBoostLevels", true)
	v.SetDefault("avatars.enabled", false)

	v.SetDefault("logLevel", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxAge", 7*24*time.Hour)
	v.SetDefault("log.rotationTime", 24*time.Hour)
}

// LoadConfig reads config.yaml from dir. A missing file is not an error:
// defaults and APP_ environment variables, optionally from dir/.env, are
// enough to start.
func LoadConfig(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(dir)
	v.SetConfigType(configFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Catalog.Boosts) == 0 {
		cfg.Catalog.Boosts = defaultBoosts
	}
	if cfg.TelegramAuth.TelegramBotToken == "" {
		return nil, errors.New("telegramAuth.telegramBotToken is required")
	}

	return &cfg, nil
}
