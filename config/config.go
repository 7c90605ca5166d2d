package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"animalitos-stats/models"
)

// Config holds all application configuration.
type Config struct {
	Report   ReportConfig   `mapstructure:"report"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ReportConfig selects the input, grouping and output of a report run.
type ReportConfig struct {
	Input     string `mapstructure:"input"`
	Source    string `mapstructure:"source"`
	GroupBy   string `mapstructure:"group_by"`
	Mode      string `mapstructure:"mode"`
	ChartPath string `mapstructure:"chart_path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ScrapeConfig drives the results collector.
type ScrapeConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	StartDate      string        `mapstructure:"start_date"`
	EndDate        string        `mapstructure:"end_date"`
	Output         string        `mapstructure:"output"`
	Archive        string        `mapstructure:"archive"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	RateLimitMs    int           `mapstructure:"rate_limit_ms"`
	MaxRetries     int           `mapstructure:"max_retries"`
	PageTimeout    time.Duration `mapstructure:"page_timeout"`
	ChromeBin      string        `mapstructure:"chrome_bin"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the .env file, then the optional config file at path, then
// ANIMALITOS_* environment variables, over the built-in defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ANIMALITOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("report.input", "results.csv")
	v.SetDefault("report.source", "csv")
	v.SetDefault("report.group_by", "")
	v.SetDefault("report.mode", "text")
	v.SetDefault("report.chart_path", "./output/frequencies.png")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "animalitos")
	v.SetDefault("postgres.password", "animalitos")
	v.SetDefault("postgres.db", "lottery")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("sqlite.path", "./output/draws.db")

	v.SetDefault("scrape.base_url", "https://www.tuazar.com/loteria/animalitos/resultados")
	v.SetDefault("scrape.start_date", "2022-01-01")
	v.SetDefault("scrape.end_date", time.Now().Format(models.DateLayout))
	v.SetDefault("scrape.output", "results.csv")
	v.SetDefault("scrape.archive", "")
	v.SetDefault("scrape.max_concurrency", 3)
	v.SetDefault("scrape.rate_limit_ms", 1500)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.page_timeout", "60s")
	v.SetDefault("scrape.chrome_bin", "")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("logging.level", "info")
}

var (
	validModes   = map[string]bool{"text": true, "chart": true, "telegram": true}
	validSources = map[string]bool{"csv": true, "postgres": true, "sqlite": true}
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validArchive = map[string]bool{"": true, "postgres": true, "sqlite": true}
)

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if !validModes[c.Report.Mode] {
		return fmt.Errorf("report.mode must be one of: text, chart, telegram")
	}
	if !validSources[c.Report.Source] {
		return fmt.Errorf("report.source must be one of: csv, postgres, sqlite")
	}
	if c.Report.Source == "csv" && c.Report.Input == "" {
		return fmt.Errorf("report.input is required when report.source is csv")
	}
	if c.Report.Mode == "chart" && c.Report.ChartPath == "" {
		return fmt.Errorf("report.chart_path is required in chart mode")
	}
	if c.Report.Mode == "telegram" {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required in telegram mode")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required in telegram mode")
		}
	}
	if c.Report.Source == "sqlite" && c.SQLite.Path == "" {
		return fmt.Errorf("sqlite.path is required when report.source is sqlite")
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

// ValidateScrape checks the settings used only by the scrape command.
func (c *Config) ValidateScrape() error {
	from, to, err := c.ScrapeWindow()
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("scrape.end_date must not be before scrape.start_date")
	}
	if c.Scrape.Output == "" {
		return fmt.Errorf("scrape.output is required")
	}
	if !validArchive[c.Scrape.Archive] {
		return fmt.Errorf("scrape.archive must be one of: postgres, sqlite or empty")
	}
	if c.Scrape.MaxConcurrency < 1 {
		return fmt.Errorf("scrape.max_concurrency must be at least 1")
	}
	if c.Scrape.MaxRetries < 1 {
		return fmt.Errorf("scrape.max_retries must be at least 1")
	}
	if c.Scrape.PageTimeout < time.Second {
		return fmt.Errorf("scrape.page_timeout must be at least 1s")
	}
	return nil
}

// ScrapeWindow parses the configured scrape date range.
func (c *Config) ScrapeWindow() (time.Time, time.Time, error) {
	from, err := time.Parse(models.DateLayout, c.Scrape.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("scrape.start_date: %w", err)
	}
	to, err := time.Parse(models.DateLayout, c.Scrape.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("scrape.end_date: %w", err)
	}
	return from, to, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	p := c.Postgres
	return "host=" + p.Host +
		" port=" + p.Port +
		" user=" + p.User +
		" password=" + p.Password +
		" dbname=" + p.DB +
		" sslmode=" + p.SSLMode
}
