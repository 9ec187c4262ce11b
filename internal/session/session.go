// Copyright (c) 2019, Gareth Watts
// All rights reserved.

// Package session opens a decrypted view of an encrypted backup and extracts
// files from it.
package session

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gwatts/iosexport/internal/catalog"
)

var (
	ErrNotFound       = errors.New("backup not found")
	ErrAuthentication = errors.New("incorrect backup password")
	ErrClosed         = errors.New("session is closed")
	ErrNoMatch        = errors.New("no matching files in backup")
)

// File identifies a single file inside a backup.
type File struct {
	Domain string
	Path   string
}

// Archive is a decrypted backup whose files can be read.
type Archive interface {
	Files() []File
	ReadFile(f File) ([]byte, error)
}

// Decryptor opens the backup in dir using passphrase.
// Implementations return ErrAuthentication if the passphrase is wrong.
type Decryptor interface {
	Open(dir, passphrase string) (Archive, error)
}

// Session is an open handle on one backup. It is not safe for concurrent use.
type Session struct {
	record  catalog.BackupRecord
	archive Archive
}

// Open binds a session to the backup described by record.
func Open(d Decryptor, record catalog.BackupRecord, passphrase string) (*Session, error) {
	if st, err := os.Stat(record.Path); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, record.Path)
	}
	a, err := d.Open(record.Path, passphrase)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open backup %s: %w", record.UDID, err)
	}
	log.Info().Str("udid", record.UDID).Int("files", len(a.Files())).Msg("backup decrypted")
	return &Session{record: record, archive: a}, nil
}

// Record returns the backup the session is bound to.
func (s *Session) Record() catalog.BackupRecord {
	return s.record
}

// Close releases the decrypted archive. Further extraction fails with ErrClosed.
func (s *Session) Close() error {
	s.archive = nil
	return nil
}

// ExtractByPathGlob writes every file whose relative path matches pattern
// into dest and returns the number of files written.
// Patterns follow SQL LIKE rules.
func (s *Session) ExtractByPathGlob(pattern, dest string, preserve bool) (int, error) {
	m, err := compileLike(pattern)
	if err != nil {
		return 0, err
	}
	return s.extractMatching(dest, preserve, func(f File) bool { return m.MatchString(f.Path) })
}

// ExtractByDomain writes every file whose domain matches domain into dest
// and returns the number of files written.
func (s *Session) ExtractByDomain(domain, dest string, preserve bool) (int, error) {
	m, err := compileLike(domain)
	if err != nil {
		return 0, err
	}
	return s.extractMatching(dest, preserve, func(f File) bool { return m.MatchString(f.Domain) })
}

// ExtractSingleFile writes the first file with the given relative path to destFile.
func (s *Session) ExtractSingleFile(relPath, destFile string) error {
	if s.archive == nil {
		return ErrClosed
	}
	for _, f := range s.archive.Files() {
		if f.Path == relPath {
			return s.write(f, destFile)
		}
	}
	return fmt.Errorf("%w: %s", ErrNoMatch, relPath)
}

func (s *Session) extractMatching(dest string, preserve bool, match func(File) bool) (int, error) {
	if s.archive == nil {
		return 0, ErrClosed
	}
	var n int
	for _, f := range s.archive.Files() {
		if !match(f) {
			continue
		}
		target, err := targetPath(dest, f.Path, preserve)
		if err != nil {
			return n, err
		}
		if err := s.write(f, target); err != nil {
			return n, err
		}
		n++
	}
	log.Debug().Str("dest", dest).Int("files", n).Msg("extracted files")
	return n, nil
}

func (s *Session) write(f File, target string) error {
	data, err := s.archive.ReadFile(f)
	if err != nil {
		return fmt.Errorf("failed to read %s-%s: %w", f.Domain, f.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0644)
}

// targetPath maps a backup relative path to a location under dest.
// Paths that would escape dest are rejected.
func targetPath(dest, relPath string, preserve bool) (string, error) {
	clean := path.Clean("/" + relPath)
	if !preserve {
		clean = path.Base(clean)
	}
	if clean == "/" || clean == "." {
		return "", fmt.Errorf("invalid backup path %q", relPath)
	}
	target := filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	return target, nil
}
