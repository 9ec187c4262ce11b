// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package catalog

import (
	"os"
	"time"

	"howett.net/plist"
)

const (
	manifestPlistName = "Manifest.plist"
	infoPlistName     = "Info.plist"
)

// manifest holds the fields of Manifest.plist we care about.
type manifest struct {
	IsEncrypted bool `plist:"IsEncrypted"`
}

// info holds the display attributes from Info.plist.
type info struct {
	DeviceName       string    `plist:"Device Name"`
	LastBackupDate   time.Time `plist:"Last Backup Date"`
	PhoneNumber      string    `plist:"Phone Number"`
	ProductName      string    `plist:"Product Name"`
	UniqueIdentifier string    `plist:"Unique Identifier"`
}

// loadPlist decodes an XML or binary property list file into v.
func loadPlist(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return plist.NewDecoder(f).Decode(v)
}
