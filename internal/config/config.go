package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Operation names the single use case a function instance serves.
type Operation string

const (
	OperationCreateSession Operation = "createSession"
	OperationSession       Operation = "session"
	OperationJoinSession   Operation = "joinSession"
	OperationCloseSession  Operation = "closeSession"
	OperationLeaveSession  Operation = "leaveSession"
	OperationCastVote      Operation = "castVote"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendBadger   = "badger"
)

// Config is read once at startup from the environment.
type Config struct {
	Operation        Operation     `env:"OPERATION,required"`
	TableName        string        `env:"SESSIONS_TABLE_NAME" envDefault:"sessions"`
	TableParam       string        `env:"SESSIONS_TABLE_PARAM"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"5s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	StoreBackend     string        `env:"STORE_BACKEND" envDefault:"dynamodb"`
	BadgerPath       string        `env:"BADGER_PATH"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Operation {
	case OperationCreateSession, OperationSession, OperationJoinSession,
		OperationCloseSession, OperationLeaveSession, OperationCastVote:
	default:
		return fmt.Errorf("config: unknown OPERATION %q", c.Operation)
	}
	switch c.StoreBackend {
	case BackendDynamoDB, BackendBadger:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if strings.TrimSpace(c.TableName) == "" {
		return errors.New("config: SESSIONS_TABLE_NAME must not be blank")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.OperationTimeout <= 0 {
		return errors.New("config: OPERATION_TIMEOUT must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
