package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"hedge_bot/pkg/logger"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	operatorChatENV   = "TELEGRAM_OPERATOR_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	bybitKeyENV       = "BYBIT_API_KEY"
	bybitSecretENV    = "BYBIT_API_SECRET"
	bybitTestnetENV   = "BYBIT_TESTNET"
	logLevelENV       = "LOG_LEVEL"

	// старые имена из .env первой версии бота
	legacyKeyENV    = "API"
	legacySecretENV = "SECRET"
	legacyTokenENV  = "TG_TOKEN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token          string `yaml:"token" validate:"required"`
		OperatorChatID int64  `yaml:"operator_chat_id" validate:"required"`
	} `yaml:"telegram"`

	Bybit struct {
		BaseURL     string        `yaml:"base_url" validate:"required,url"`
		WSURL       string        `yaml:"ws_url" validate:"required"`
		APIKey      string        `yaml:"api_key" validate:"required"`
		APISecret   string        `yaml:"api_secret" validate:"required"`
		RecvWindow  int           `yaml:"recv_window" validate:"gt=0"`
		CallTimeout time.Duration `yaml:"call_timeout" validate:"gt=0"`
	} `yaml:"bybit"`

	// Пустой DSN: аудит только в лог
	DB string `yaml:"db_dsn"`

	Service struct {
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port" validate:"gt=0,lte=65535"`

		// /readyz отдаёт 503, если цикл движка молчит дольше
		StaleAfter time.Duration `yaml:"stale_after" validate:"gt=0"`
	} `yaml:"service"`

	Logger logger.Config `yaml:"logger"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	WS struct {
		Enabled      bool          `yaml:"enabled"`
		PingInterval time.Duration `yaml:"ping_interval" validate:"gt=0"`
	} `yaml:"ws"`

	// Стартовые параметры стратегии, дальше их меняет оператор
	Strategy struct {
		Instruments     []string      `yaml:"instruments"`
		TradeSize       float64       `yaml:"trade_size" validate:"gt=0"`
		StopLossPct     float64       `yaml:"stop_loss_pct" validate:"gt=0"`
		TrailingStopPct float64       `yaml:"trailing_stop_pct" validate:"gt=0"`
		HoldDuration    time.Duration `yaml:"hold_duration" validate:"gt=0"`
	} `yaml:"strategy"`

	Engine struct {
		IdlePoll        time.Duration `yaml:"idle_poll" validate:"gt=0"`
		InstrumentDelay time.Duration `yaml:"instrument_delay" validate:"gt=0"`
		MonitorInterval time.Duration `yaml:"monitor_interval" validate:"gt=0"`
		BackoffBase     time.Duration `yaml:"backoff_base" validate:"gt=0"`
		BackoffMax      time.Duration `yaml:"backoff_max" validate:"gtefield=BackoffBase"`
	} `yaml:"engine"`
}

func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.AdminPort)
}

func defaults() Config {
	var c Config
	c.Bybit.BaseURL = "https://api.bybit.com"
	c.Bybit.WSURL = "wss://stream.bybit.com/v5/public/linear"
	c.Bybit.RecvWindow = 5000
	c.Bybit.CallTimeout = 10 * time.Second

	c.Service.AdminPort = 8080
	c.Service.StaleAfter = 5 * time.Minute
	c.Logger = logger.Config{Level: "info", File: "logs/bot.log", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14}

	c.WS.Enabled = true
	c.WS.PingInterval = 20 * time.Second

	c.Strategy.TradeSize = 6
	c.Strategy.StopLossPct = 1
	c.Strategy.TrailingStopPct = 1
	c.Strategy.HoldDuration = 10 * time.Second

	c.Engine.IdlePoll = 10 * time.Second
	c.Engine.InstrumentDelay = 10 * time.Second
	c.Engine.MonitorInterval = time.Second
	c.Engine.BackoffBase = 2 * time.Second
	c.Engine.BackoffMax = 2 * time.Minute
	return c
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	return Load("configs/" + configFileName)
}

// Load читает yaml поверх дефолтов, применяет env и валидирует.
func Load(path string) (*Config, error) {
	config := defaults()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// без файла живём на дефолтах и env
	default:
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	applyEnv(&config)

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func applyEnv(config *Config) {
	if token := getenvDefault(tokenTelegramENV, os.Getenv(legacyTokenENV)); token != "" {
		config.Telegram.Token = token
	}
	config.Telegram.OperatorChatID = int64FromEnv(operatorChatENV, config.Telegram.OperatorChatID)

	if key := getenvDefault(bybitKeyENV, os.Getenv(legacyKeyENV)); key != "" {
		config.Bybit.APIKey = key
	}
	if secret := getenvDefault(bybitSecretENV, os.Getenv(legacySecretENV)); secret != "" {
		config.Bybit.APISecret = secret
	}
	if boolFromEnv(bybitTestnetENV, false) {
		config.Bybit.BaseURL = "https://api-testnet.bybit.com"
		config.Bybit.WSURL = "wss://stream-testnet.bybit.com/v5/public/linear"
	}

	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}
	config.Logger.Level = getenvDefault(logLevelENV, config.Logger.Level)
}

func int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
