// Copyright (c) 2019, Gareth Watts
// All rights reserved.

// Package catalog finds encrypted iOS backups in a storage directory.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DisplayTimeFormat is the layout used for LastBackupDisplay.
const DisplayTimeFormat = "2006-01-02 15:04"

var (
	// ErrNoBackups is returned when the storage root holds no backup directories.
	ErrNoBackups = errors.New("there are no backups available")
	// ErrNoEncryptedBackups is returned when backups exist but none are encrypted.
	ErrNoEncryptedBackups = errors.New("there are no encrypted backups available")
)

// udidPattern matches the directory names iTunes and Finder give to backups.
var udidPattern = regexp.MustCompile(`^[0-9A-F]{8}-[0-9A-F]{16}$`)

// BackupRecord describes one encrypted backup found on disk.
type BackupRecord struct {
	Path              string
	UDID              string
	DeviceName        string
	LastBackup        time.Time
	LastBackupDisplay string
	PhoneNumber       string
	ProductName       string
	IsEncrypted       bool
}

// IsBackupName reports whether name has the shape of a backup identifier.
func IsBackupName(name string) bool {
	return udidPattern.MatchString(name)
}

// Discover scans root for backups and returns the encrypted ones in directory order.
//
// Entries whose name is not a backup identifier are ignored. Backups whose
// Manifest.plist cannot be read or that are not encrypted are left out.
// ErrNoBackups or ErrNoEncryptedBackups is returned when nothing is left.
func Discover(root string) ([]BackupRecord, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoBackups
		}
		return nil, fmt.Errorf("failed to read backup directory %s: %w", root, err)
	}

	var candidates int
	var records []BackupRecord
	for _, e := range entries {
		if !IsBackupName(e.Name()) {
			continue
		}
		candidates++
		rec, ok := loadRecord(filepath.Join(root, e.Name()), e.Name())
		if ok {
			records = append(records, rec)
		}
	}

	switch {
	case candidates == 0:
		return nil, ErrNoBackups
	case len(records) == 0:
		return nil, ErrNoEncryptedBackups
	}
	return records, nil
}

func loadRecord(path, udid string) (BackupRecord, bool) {
	var m manifest
	if err := loadPlist(filepath.Join(path, manifestPlistName), &m); err != nil {
		log.Debug().Err(err).Str("udid", udid).Msg("skipping backup with unreadable manifest")
		return BackupRecord{}, false
	}
	if !m.IsEncrypted {
		log.Debug().Str("udid", udid).Msg("skipping unencrypted backup")
		return BackupRecord{}, false
	}

	var inf info
	if err := loadPlist(filepath.Join(path, infoPlistName), &inf); err != nil {
		log.Warn().Err(err).Str("udid", udid).Msg("skipping encrypted backup with unreadable Info.plist")
		return BackupRecord{}, false
	}

	if inf.UniqueIdentifier != "" && !strings.EqualFold(inf.UniqueIdentifier, udid) {
		log.Debug().Str("udid", udid).Str("info_udid", inf.UniqueIdentifier).Msg("Info.plist identifier differs from directory name")
	}

	rec := BackupRecord{
		Path:        path,
		UDID:        udid,
		DeviceName:  inf.DeviceName,
		PhoneNumber: inf.PhoneNumber,
		ProductName: inf.ProductName,
		IsEncrypted: true,
	}
	if !inf.LastBackupDate.IsZero() {
		rec.LastBackup = inf.LastBackupDate.Local()
		rec.LastBackupDisplay = rec.LastBackup.Format(DisplayTimeFormat)
	}
	return rec, true
}
