// Copyright (c) 2019, Gareth Watts
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//     * Redistributions of source code must retain the above copyright
//       notice, this list of conditions and the following disclaimer.
//     * Redistributions in binary form must reproduce the above copyright
//       notice, this list of conditions and the following disclaimer in the
//       documentation and/or other materials provided with the distribution.
//     * Neither the name of the <organization> nor the
//       names of its contributors may be used to endorse or promote products
//       derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND
// ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED
// WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL <COPYRIGHT HOLDER> BE LIABLE FOR ANY
// DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES
// (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES;
// LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND
// ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS
// SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// iOS Backup Exporter
//
// This program lists the encrypted iTunes/Finder backups in a backup folder,
// decrypts the one the user picks and exports iMessage chats, WhatsApp chats
// and Safari history from it.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gwatts/iosexport/internal/catalog"
	"github.com/gwatts/iosexport/internal/config"
	"github.com/gwatts/iosexport/internal/debug"
	"github.com/gwatts/iosexport/internal/export"
	"github.com/gwatts/iosexport/internal/logger"
	"github.com/gwatts/iosexport/internal/selector"
	"github.com/gwatts/iosexport/internal/session"
)

const (
	exitNoBackups = iota + 1
	exitNoEncrypted
	exitNotFound
	exitBadPassword
	exitFailure
)

// app wires the interactive flow to its collaborators so it can be driven from tests.
type app struct {
	cfg       *config.Config
	in        *bufio.Reader
	out       io.Writer
	decryptor session.Decryptor
	renderer  export.Renderer
	password  func(*bufio.Reader, io.Writer) (string, error)

	records []catalog.BackupRecord
	results []export.Result
}

func (a *app) run() error {
	records, err := catalog.Discover(a.cfg.BackupRoot)
	if err != nil {
		return err
	}
	a.records = records

	rec, err := selector.Select(records, a.in, a.out)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "You selected", rec.DeviceName)
	log.Info().Str("udid", rec.UDID).Str("device", rec.DeviceName).Msg("backup selected")

	pw, err := a.password(a.in, a.out)
	if err != nil {
		return err
	}
	sess, err := session.Open(a.decryptor, rec, pw)
	if err != nil {
		return err
	}
	defer sess.Close()
	log.Info().Str("udid", sess.Record().UDID).Msg("session opened")

	choice, err := selector.ChooseExport(a.in, a.out)
	if err != nil {
		return err
	}
	if !validChoice(choice) {
		fmt.Fprintln(a.out, "Invalid input! Defaulting to 4) All of the above.")
	}

	orch := &export.Orchestrator{
		WorkDir: a.cfg.WorkDir,
		Out:     a.out,
		Exporters: map[export.Category]export.Exporter{
			export.Messages: &export.MessagesExporter{Renderer: a.renderer, Program: a.cfg.IMessageExporter},
			export.Chat:     &export.ChatExporter{Renderer: a.renderer, Program: a.cfg.WhatsAppExporter},
			export.History:  &export.HistoryExporter{},
		},
	}
	dest := a.cfg.ExportDir(sess.Record().UDID)
	a.results = orch.Run(sess, export.TasksFor(choice), dest)

	fmt.Fprintln(a.out, "Export summary for", dest)
	for _, r := range a.results {
		fmt.Fprintln(a.out, " ", r)
	}
	return nil
}

func validChoice(choice string) bool {
	choice = strings.TrimSpace(choice)
	for _, o := range selector.ExportOptions {
		if o.Key == choice {
			return true
		}
	}
	return false
}

// exitCode maps a fatal error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNoBackups):
		return exitNoBackups
	case errors.Is(err, catalog.ErrNoEncryptedBackups):
		return exitNoEncrypted
	case errors.Is(err, session.ErrNotFound):
		return exitNotFound
	case errors.Is(err, session.ErrAuthentication):
		return exitBadPassword
	}
	return exitFailure
}

func (a *app) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backup root: %s\nBackups found: %d\n", a.cfg.BackupRoot, len(a.records))
	for _, r := range a.results {
		fmt.Fprintln(&b, r)
	}
	return b.String()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(exitFailure)
	}
	logger.Init(cfg.LogLevel)
	logger.WithRunID(uuid.NewString())

	a := &app{
		cfg:       cfg,
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		decryptor: session.IOSDecryptor{},
		renderer:  export.NewExecRenderer(),
		password:  selector.ReadPassphrase,
	}

	fmt.Println("Searching for backups in", cfg.BackupRoot)
	runErr := a.run()

	if cfg.Debug {
		if fn, err := debug.Build(cfg.DebugDir, a.summary(), a.records); err != nil {
			fmt.Println("Failed to write debug file:", err)
		} else {
			fmt.Println("Debug information written to", fn)
		}
	}

	if runErr != nil {
		switch {
		case errors.Is(runErr, catalog.ErrNoBackups):
			fmt.Println("There are no backups available!")
		case errors.Is(runErr, catalog.ErrNoEncryptedBackups):
			fmt.Println("There are no encrypted backups available!")
		case errors.Is(runErr, session.ErrAuthentication):
			fmt.Println("Incorrect backup password!")
		default:
			fmt.Println("Error:", runErr)
		}
		log.Error().Err(runErr).Msg("run aborted")
		os.Exit(exitCode(runErr))
	}
	fmt.Println("Done!")
}
