//go:build !nodecrypt

package session

import (
	"testing"

	iosbackup "github.com/gwatts/ios/backup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOSArchiveEmptyFile(t *testing.T) {
	f := File{Domain: "MediaDomain", Path: "Library/SMS/Attachments/00/empty.txt"}
	// no backup is attached, so any call into the library would panic
	a := &iosArchive{
		files:   []File{f},
		records: map[File]iosbackup.Record{f: {Domain: f.Domain, Path: f.Path}},
	}

	data, err := a.ReadFile(f)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestIOSArchiveUnknownFile(t *testing.T) {
	a := &iosArchive{records: map[File]iosbackup.Record{}}
	_, err := a.ReadFile(File{Domain: "HomeDomain", Path: "missing"})
	assert.ErrorIs(t, err, ErrNoMatch)
}
