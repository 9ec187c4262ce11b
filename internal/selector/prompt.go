// Copyright (c) 2019, Gareth Watts
// All rights reserved.

package selector

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/howeyc/gopass"
	"golang.org/x/term"
)

// getPasswd and stdinIsTerminal are swapped out in tests so they do not need a terminal.
var (
	getPasswd       = gopass.GetPasswdPrompt
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// ExportOption is one entry of the export menu.
type ExportOption struct {
	Key   string
	Label string
}

// ExportOptions is the export menu in display order.
var ExportOptions = []ExportOption{
	{"1", "iMessage chats"},
	{"2", "WhatsApp chats"},
	{"3", "Safari history"},
	{"4", "All of the above"},
}

const passphrasePrompt = "Enter backup password: "

// ReadPassphrase prompts for the backup password with masked input.
//
// in must be the reader used for the other prompts. When stdin is not a
// terminal the password is read from in, since piped input for it may
// already be sitting in in's buffer.
func ReadPassphrase(in *bufio.Reader, out io.Writer) (string, error) {
	if !stdinIsTerminal() {
		return readLine(in, out, passphrasePrompt)
	}
	pw, err := getPasswd(passphrasePrompt, true, os.Stdin, out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// ChooseExport prints the export menu and returns the raw answer.
// Interpreting it, including the fallback for unknown answers, is up to the caller.
func ChooseExport(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, "What would you like to export?")
	for _, o := range ExportOptions {
		fmt.Fprintf(out, "%s) %s\n", o.Key, o.Label)
	}
	return readLine(in, out, "Enter a number to select an export option: ")
}
