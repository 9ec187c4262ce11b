// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package export

import (
	"fmt"
	"path/filepath"

	"github.com/gwatts/iosexport/internal/session"
)

const (
	whatsAppDomain = "%net.whatsapp.WhatsApp%"
	chatDBName     = "ChatStorage.sqlite"
)

// ChatExporter extracts WhatsApp's app group and renders it to HTML with
// WhatsApp-Chat-Exporter. Media is moved out of the scratch area, not copied.
type ChatExporter struct {
	Renderer Renderer
	Program  string
}

func (e *ChatExporter) Export(src Source, workDir, out string) error {
	media := filepath.Join(workDir, "WhatsApp")
	n, err := src.ExtractByDomain(whatsAppDomain, media, true)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", session.ErrNoMatch, whatsAppDomain)
	}
	return e.Renderer.Render(e.Program,
		"--ios",
		"--move-media",
		"--no-avatar",
		"--db", filepath.Join(media, chatDBName),
		"--media", media,
		"--output", out,
	)
}
