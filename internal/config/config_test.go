package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"EXPORT_ROOT", "WORK_DIR", "LOG_LEVEL", "IMESSAGE_EXPORTER", "WHATSAPP_EXPORTER", "DEBUG", "DEBUG_DIR"} {
		unsetEnv(t, k)
	}
	t.Setenv("BACKUP_ROOT", "/some/backups")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/some/backups", cfg.BackupRoot)
	assert.Equal(t, "/mnt/Export", cfg.ExportRoot)
	assert.Equal(t, os.TempDir(), cfg.WorkDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "imessage-exporter", cfg.IMessageExporter)
	assert.Equal(t, "wtsexporter", cfg.WhatsAppExporter)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.DebugDir)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKUP_ROOT", "/b")
	t.Setenv("EXPORT_ROOT", "/e")
	t.Setenv("WORK_DIR", "/w")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IMESSAGE_EXPORTER", "/opt/bin/imessage-exporter")
	t.Setenv("WHATSAPP_EXPORTER", "/opt/bin/wtsexporter")
	t.Setenv("DEBUG_DIR", "/d")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, &Config{
		BackupRoot:       "/b",
		ExportRoot:       "/e",
		WorkDir:          "/w",
		LogLevel:         "debug",
		IMessageExporter: "/opt/bin/imessage-exporter",
		WhatsAppExporter: "/opt/bin/wtsexporter",
		Debug:            true,
		DebugDir:         "/d",
	}, cfg)
}

func TestLoadDebugFlag(t *testing.T) {
	t.Setenv("BACKUP_ROOT", "/b")
	unsetEnv(t, "DEBUG_DIR")

	t.Setenv("DEBUG", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Empty(t, cfg.DebugDir)

	t.Setenv("DEBUG", "maybe")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadEmptyExportRoot(t *testing.T) {
	t.Setenv("BACKUP_ROOT", "/b")
	t.Setenv("EXPORT_ROOT", "")

	_, err := Load()
	require.Error(t, err)
}

func TestExportDir(t *testing.T) {
	cfg := &Config{ExportRoot: "/mnt/Export"}
	assert.Equal(t, filepath.Join("/mnt/Export", "AAAAAAAA-0000000000000001"), cfg.ExportDir("AAAAAAAA-0000000000000001"))
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, ok := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if ok {
			os.Setenv(key, old)
		}
	})
}
