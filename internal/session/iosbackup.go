// Copyright (c) 2019, Gareth Watts
// All rights reserved.

//go:build !nodecrypt

package session

import (
	iosbackup "github.com/gwatts/ios/backup"
)

const (
	modeTypeMask = 0xF000
	modeDir      = 0x4000
)

// IOSDecryptor opens iTunes/Finder backups using github.com/gwatts/ios.
type IOSDecryptor struct{}

// Open decrypts the backup keybag with passphrase and loads the manifest.
func (IOSDecryptor) Open(dir, passphrase string) (Archive, error) {
	mb, err := iosbackup.Open(dir)
	if err != nil {
		return nil, err
	}
	if err := mb.SetPassword(passphrase); err != nil {
		return nil, ErrAuthentication
	}
	if err := mb.Load(); err != nil {
		return nil, err
	}

	a := &iosArchive{mb: mb, records: make(map[File]iosbackup.Record)}
	for _, rec := range mb.Records {
		if rec.Mode&modeTypeMask == modeDir || rec.LinkTarget != "" {
			continue
		}
		f := File{Domain: rec.Domain, Path: rec.Path}
		if _, dup := a.records[f]; dup {
			continue
		}
		a.records[f] = rec
		a.files = append(a.files, f)
	}
	return a, nil
}

type iosArchive struct {
	mb      *iosbackup.MobileBackup
	files   []File
	records map[File]iosbackup.Record
}

func (a *iosArchive) Files() []File {
	return a.files
}

func (a *iosArchive) ReadFile(f File) ([]byte, error) {
	rec, ok := a.records[f]
	if !ok {
		return nil, ErrNoMatch
	}
	// the library panics decrypting empty files
	if rec.Length == 0 {
		return []byte{}, nil
	}
	return a.mb.ReadFile(rec)
}
