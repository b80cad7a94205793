package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация сервера разрешения контрагентов и банков
type Config struct {
	// Сервер
	Port string `json:"port"`

	// База данных
	DatabasePath string `json:"database_path"`

	// Connection pooling
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`

	// Логирование
	LogLevel string `json:"log_level"`

	// Ограничение частоты запросов к API
	RateLimitPerSec int `json:"rate_limit_per_sec"`
	RateLimitBurst  int `json:"rate_limit_burst"`

	// Пороги и веса движка сопоставления
	Matching MatchingConfig `json:"matching"`

	// Веса источников для кэша подсказок
	Suggestions SuggestionConfig `json:"suggestions"`
}

// MatchingConfig пороги и веса доверия для генерации кандидатов.
// Задаются оператором через окружение, чтобы перенастройка доверия
// не требовала пересборки.
type MatchingConfig struct {
	ReviewThreshold   float64 `json:"review_threshold"`     // минимальный scoreRaw для попадания в кандидаты
	AutoThreshold     float64 `json:"auto_threshold"`       // минимальный score для авто-принятия
	StrongThreshold   float64 `json:"strong_threshold"`     // scoreRaw, с которого fuzzy-кандидат считается сильным
	ConflictDelta     float64 `json:"conflict_delta"`       // минимальный отрыв лидера от второго кандидата
	BankShortFuzzyMin float64 `json:"bank_short_fuzzy_min"` // порог fuzzy-сопоставления аббревиатур банков
	BankFullFuzzyMin  float64 `json:"bank_full_fuzzy_min"`  // порог fuzzy-сопоставления полных названий банков
	WeightOfficial    float64 `json:"weight_official"`
	WeightAltConfirm  float64 `json:"weight_alt_confirmed"`
	WeightFuzzy       float64 `json:"weight_fuzzy"`
}

// SuggestionConfig веса источников для ранжирования подсказок
type SuggestionConfig struct {
	WeightLearning    int `json:"weight_learning"`
	WeightUserHistory int `json:"weight_user_history"`
	WeightAlternative int `json:"weight_alternative"`
	WeightDictionary  int `json:"weight_dictionary"`
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:         getEnv("SERVER_PORT", "9980"),
		DatabasePath: getEnv("DATABASE_PATH", "bgl_data.db"),

		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		RateLimitPerSec: getEnvInt("RATE_LIMIT_PER_SEC", 50),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 100),

		Matching: MatchingConfig{
			ReviewThreshold:   getEnvFloat("MATCH_REVIEW_THRESHOLD", 0.80),
			AutoThreshold:     getEnvFloat("MATCH_AUTO_THRESHOLD", 0.90),
			StrongThreshold:   getEnvFloat("MATCH_STRONG_THRESHOLD", 0.90),
			ConflictDelta:     getEnvFloat("CONFLICT_DELTA", 0.10),
			BankShortFuzzyMin: getEnvFloat("BANK_SHORT_FUZZY_MIN", 0.90),
			BankFullFuzzyMin:  getEnvFloat("BANK_FULL_FUZZY_MIN", 0.95),
			WeightOfficial:    getEnvFloat("WEIGHT_OFFICIAL", 1.0),
			WeightAltConfirm:  getEnvFloat("WEIGHT_ALT_CONFIRMED", 0.95),
			WeightFuzzy:       getEnvFloat("WEIGHT_FUZZY", 0.90),
		},

		Suggestions: SuggestionConfig{
			WeightLearning:    getEnvInt("SUGGEST_WEIGHT_LEARNING", 100),
			WeightUserHistory: getEnvInt("SUGGEST_WEIGHT_USER_HISTORY", 80),
			WeightAlternative: getEnvInt("SUGGEST_WEIGHT_ALTERNATIVE", 60),
			WeightDictionary:  getEnvInt("SUGGEST_WEIGHT_DICTIONARY", 40),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate проверяет корректность конфигурации.
// Невалидные пороги — фатальная ошибка запуска.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive, got %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections must not be negative, got %d", c.MaxIdleConns)
	}
	return c.Matching.Validate()
}

// Validate проверяет пороги и веса движка сопоставления
func (m *MatchingConfig) Validate() error {
	thresholds := map[string]float64{
		"MATCH_REVIEW_THRESHOLD": m.ReviewThreshold,
		"MATCH_AUTO_THRESHOLD":   m.AutoThreshold,
		"MATCH_STRONG_THRESHOLD": m.StrongThreshold,
		"BANK_SHORT_FUZZY_MIN":   m.BankShortFuzzyMin,
		"BANK_FULL_FUZZY_MIN":    m.BankFullFuzzyMin,
	}
	for name, value := range thresholds {
		if value <= 0 || value > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, value)
		}
	}
	if m.ConflictDelta < 0 || m.ConflictDelta > 1 {
		return fmt.Errorf("CONFLICT_DELTA must be in [0, 1], got %v", m.ConflictDelta)
	}
	weights := map[string]float64{
		"WEIGHT_OFFICIAL":      m.WeightOfficial,
		"WEIGHT_ALT_CONFIRMED": m.WeightAltConfirm,
		"WEIGHT_FUZZY":         m.WeightFuzzy,
	}
	for name, value := range weights {
		if value <= 0 || value > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, value)
		}
	}
	// Авто-принятие не должно быть мягче порога ревью, иначе в "ready"
	// попадут кандидаты, которые даже не прошли отбор.
	if m.AutoThreshold < m.ReviewThreshold {
		return fmt.Errorf("MATCH_AUTO_THRESHOLD (%v) must not be below MATCH_REVIEW_THRESHOLD (%v)", m.AutoThreshold, m.ReviewThreshold)
	}
	return nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
