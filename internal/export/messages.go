// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package export

import (
	"fmt"
	"path/filepath"

	"github.com/gwatts/iosexport/internal/session"
)

const (
	messageStorePattern = "Library/SMS/%"
	messageDBPath       = "Library/SMS/sms.db"
)

// MessagesExporter extracts the iMessage/SMS store and renders it to HTML
// with imessage-exporter.
type MessagesExporter struct {
	Renderer Renderer
	Program  string
}

func (e *MessagesExporter) Export(src Source, workDir, out string) error {
	n, err := src.ExtractByPathGlob(messageStorePattern, workDir, true)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", session.ErrNoMatch, messageStorePattern)
	}
	return e.Renderer.Render(e.Program,
		"--use-caller-id",
		"--format", "html",
		"--copy-method", "full",
		"--db-path", filepath.Join(workDir, filepath.FromSlash(messageDBPath)),
		"--export-path", out,
	)
}
