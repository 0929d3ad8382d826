package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPERATION", "createSession")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, OperationCreateSession, cfg.Operation)
	require.Equal(t, "sessions", cfg.TableName)
	require.Empty(t, cfg.TableParam)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 5*time.Second, cfg.OperationTimeout)
	require.Equal(t, BackendDynamoDB, cfg.StoreBackend)
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPERATION", "joinSession")
	t.Setenv("SESSIONS_TABLE_NAME", "poker-prod")
	t.Setenv("SESSIONS_TABLE_PARAM", "/poker/table")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("OPERATION_TIMEOUT", "750ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "badger")
	t.Setenv("BADGER_PATH", "/tmp/poker")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, OperationJoinSession, cfg.Operation)
	require.Equal(t, "poker-prod", cfg.TableName)
	require.Equal(t, "/poker/table", cfg.TableParam)
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
	require.Equal(t, 750*time.Millisecond, cfg.OperationTimeout)
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	require.Equal(t, BackendBadger, cfg.StoreBackend)
	require.Equal(t, "/tmp/poker", cfg.BadgerPath)
}

func TestLoad_MissingOperation(t *testing.T) {
	t.Setenv("OPERATION", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_UnknownOperation(t *testing.T) {
	t.Setenv("OPERATION", "deleteEverything")
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown OPERATION")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("OPERATION", "session")
	t.Setenv("STORE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_NonPositiveTTL(t *testing.T) {
	t.Setenv("OPERATION", "session")
	t.Setenv("SESSION_TTL", "0s")
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SESSION_TTL")
}

func TestSlogLevel_Unrecognized(t *testing.T) {
	require.Equal(t, slog.LevelInfo, Config{LogLevel: "chatty"}.SlogLevel())
}
