// Copyright (c) 2019, Gareth Watts
// All rights reserved.

// Package selector implements the interactive prompts: backup selection,
// passphrase entry and export option choice.
package selector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gwatts/iosexport/internal/catalog"
)

var (
	ErrNotNumber  = errors.New("not a number")
	ErrOutOfRange = errors.New("index not in range")
)

var tableHeaders = []string{"#", "Device Name", "Last Backup Date", "Phone Number", "Product Name", "Unique Identifier"}

// ParseSelection parses a 1-based row index and checks it falls within [1, n].
func ParseSelection(input string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(input))
	if errors.Is(err, strconv.ErrRange) {
		return 0, ErrOutOfRange
	}
	if err != nil {
		return 0, ErrNotNumber
	}
	if i < 1 || i > n {
		return 0, ErrOutOfRange
	}
	return i, nil
}

// RenderTable writes records to w as a 1-based indexed table.
func RenderTable(w io.Writer, records []catalog.BackupRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeaders, "\t"))
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.DeviceName, r.LastBackupDisplay, r.PhoneNumber, r.ProductName, r.UDID)
	}
	return tw.Flush()
}

// Select shows records and keeps prompting until the operator enters a valid
// row index. It only returns an error if reading input fails.
func Select(records []catalog.BackupRecord, in *bufio.Reader, out io.Writer) (catalog.BackupRecord, error) {
	if len(records) == 0 {
		return catalog.BackupRecord{}, catalog.ErrNoEncryptedBackups
	}

	fmt.Fprintln(out, "These are the available encrypted backups:")
	if err := RenderTable(out, records); err != nil {
		return catalog.BackupRecord{}, err
	}

	for {
		line, err := readLine(in, out, "Enter a row index to select an encrypted backup: ")
		if err != nil {
			return catalog.BackupRecord{}, err
		}
		i, err := ParseSelection(line, len(records))
		switch {
		case errors.Is(err, ErrNotNumber):
			fmt.Fprintln(out, "Not a number!")
		case errors.Is(err, ErrOutOfRange):
			fmt.Fprintln(out, "Index not in range!")
		default:
			return records[i-1], nil
		}
	}
}

// readLine prints prompt and reads a single trimmed line. A final line
// without a newline is returned as is; EOF with no input is an error.
func readLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
