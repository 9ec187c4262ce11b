// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
)

const (
	defaultBackupRoot = "/mnt/Backup"
	defaultExportRoot = "/mnt/Export"
)

// Config holds the runtime settings for iosexport.
type Config struct {
	BackupRoot       string
	ExportRoot       string
	WorkDir          string
	LogLevel         string
	IMessageExporter string
	WhatsAppExporter string
	// Debug enables writing a debug bundle to DebugDir after the run.
	// An empty DebugDir means the executable's or the user's home directory.
	Debug    bool
	DebugDir string
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		BackupRoot:       getEnv("BACKUP_ROOT", ""),
		ExportRoot:       getEnv("EXPORT_ROOT", defaultExportRoot),
		WorkDir:          getEnv("WORK_DIR", os.TempDir()),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		IMessageExporter: getEnv("IMESSAGE_EXPORTER", "imessage-exporter"),
		WhatsAppExporter: getEnv("WHATSAPP_EXPORTER", "wtsexporter"),
		DebugDir:         getEnv("DEBUG_DIR", ""),
	}

	if v := getEnv("DEBUG", ""); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEBUG value %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	if cfg.DebugDir != "" {
		cfg.Debug = true
	}

	if cfg.BackupRoot == "" {
		cfg.BackupRoot = defaultBackupRoot
		if !isDir(defaultBackupRoot) {
			if dir, err := findSyncDir(); err == nil {
				cfg.BackupRoot = dir
			}
		}
	}
	if cfg.ExportRoot == "" {
		return nil, errors.New("EXPORT_ROOT must not be empty")
	}
	return cfg, nil
}

// ExportDir returns the per-device output directory for a backup identifier.
func (c *Config) ExportDir(udid string) string {
	return filepath.Join(c.ExportRoot, udid)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func isDir(p string) bool {
	s, err := os.Stat(p)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// figure out where iTunes keeps its backups on the current OS
func findSyncDir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(usr.HomeDir, "Library", "Application Support", "MobileSync", "Backup")
	case "windows":
		dir = filepath.Join(usr.HomeDir, "AppData", "Roaming", "Apple Computer", "MobileSync", "Backup")
	default:
		return "", errors.New("could not detect backup directory for this operating system")
	}
	if !isDir(dir) {
		return "", fmt.Errorf("directory %s does not exist", dir)
	}
	return dir, nil
}
