package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	apiKeyENV         = "BINANCE_API_KEY"
	secretKeyENV      = "BINANCE_SECRET_KEY"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatIDTelegramENV = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
)

// TrailingLevelYAML — ступень лесенки в конфиге.
type TrailingLevelYAML struct {
	TriggerPct float64 `yaml:"trigger_pct"`
	LockPct    float64 `yaml:"lock_pct"`
}

// Config ...
type Config struct {
	Binance struct {
		APIKey    string `yaml:"api_key"`
		SecretKey string `yaml:"secret_key"`
		BaseURL   string `yaml:"base_url"`   // дефолт https://fapi.binance.com
		StreamURL string `yaml:"stream_url"` // дефолт wss://fstream.binance.com
	} `yaml:"binance"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB     string `yaml:"db_dsn"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	// Символы, за которыми следим (трейлинг + страховочный стоп)
	Watchlist []string `yaml:"watchlist"`

	// Лесенка трейлинга: триггер ROI% -> фиксируемый ROI%.
	// Валидируется один раз при старте (возрастание, lock < trigger).
	TrailingLevels []TrailingLevelYAML `yaml:"trailing_levels"`

	// Дефолты ордеров
	DefaultLeverage int     `yaml:"leverage"`
	DefaultTpPct    float64 `yaml:"tp_pct"`
	DefaultSlPct    float64 `yaml:"sl_pct"`

	// Страховочный стоп: старт/потолок эскалации
	StopLossStartPct float64 `yaml:"stop_loss_start_pct"`
	StopLossCapPct   float64 `yaml:"stop_loss_cap_pct"`

	// Сколько ждём, пока биржа отразит отмену/закрытие
	SettleTimeout  time.Duration
	SettleInterval time.Duration

	// Минимальный интервал между трейл-апдейтами одного символа
	TrailMinGap time.Duration
	// Период страховочной проверки стопа
	GuardSweepEvery time.Duration
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		DefaultLeverage:  intFromEnv("LEVERAGE", 20),
		DefaultTpPct:     floatFromEnv("TP_PCT", 10),
		DefaultSlPct:     floatFromEnv("SL_PCT", 5),
		StopLossStartPct: floatFromEnv("STOP_LOSS_START_PCT", 0.01),
		StopLossCapPct:   floatFromEnv("STOP_LOSS_CAP_PCT", 15),

		SettleTimeout:   durationFromEnv("SETTLE_TIMEOUT", "10s"),
		SettleInterval:  durationFromEnv("SETTLE_INTERVAL", "500ms"),
		TrailMinGap:     durationFromEnv("TRAIL_MIN_GAP", "15s"),
		GuardSweepEvery: durationFromEnv("GUARD_SWEEP_EVERY", "1m"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	if config.Binance.BaseURL == "" {
		config.Binance.BaseURL = "https://fapi.binance.com"
	}
	if config.Binance.StreamURL == "" {
		config.Binance.StreamURL = "wss://fstream.binance.com"
	}
	if len(config.TrailingLevels) == 0 {
		config.TrailingLevels = []TrailingLevelYAML{
			{TriggerPct: 3, LockPct: 1.5},
			{TriggerPct: 5, LockPct: 3},
			{TriggerPct: 7, LockPct: 5},
		}
	}

	if v := os.Getenv(apiKeyENV); v != "" {
		config.Binance.APIKey = v
	}
	if v := os.Getenv(secretKeyENV); v != "" {
		config.Binance.SecretKey = v
	}
	if v := os.Getenv(tokenTelegramENV); v != "" {
		config.Telegram.Token = v
	}
	if v := os.Getenv(chatIDTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}
	if v := os.Getenv(databaseDSN); v != "" {
		config.DB = v
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
