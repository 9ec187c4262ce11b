// Copyright (c) 2016, Gareth Watts
// All rights reserved.

// Package debug builds a zip file of diagnostic information to attach to bug reports.
package debug

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"runtime"

	"github.com/kr/pretty"

	"github.com/gwatts/iosexport/internal/catalog"
)

// BundleName is the file name of the generated debug bundle.
const BundleName = "iosexport-debug.zip"

var captureFilenames = []string{"Status.plist"}

func addSysinfoToZip(zf *zip.Writer) error {
	info := fmt.Sprintf(`OS: %s
Arch: %s
CPU Count: %d
Go: %s
`, runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.Version())
	return addStringToZip(zf, "sysinfo.txt", info)
}

// addBackupInfoToZip adds information about a backup to the zip file including:
// * the parsed record
// * a list of the top level entries in the backup directory with their sizes
// * the contents of Status.plist
// No decrypted content is included.
func addBackupInfoToZip(zf *zip.Writer, r catalog.BackupRecord) error {
	dir := path.Join("backups", r.UDID)
	if err := addStringToZip(zf, path.Join(dir, "info.txt"), pretty.Sprint(r)+"\n"); err != nil {
		return err
	}

	var filelist bytes.Buffer
	entries, err := os.ReadDir(r.Path)
	if err != nil {
		fmt.Fprintf(&filelist, "failed to read %s: %v\n", r.Path, err)
	}
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.IsDir() {
			fmt.Fprintf(&filelist, "%-10s %s/\n", "-", e.Name())
			continue
		}
		fmt.Fprintf(&filelist, "%-10d %s\n", fi.Size(), e.Name())
		if oneOf(e.Name(), captureFilenames) {
			if err := addFileToZip(zf, filepath.Join(r.Path, e.Name()), path.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}

	return addStringToZip(zf, path.Join(dir, "filelist.txt"), filelist.String())
}

// addFileToZip copies a single file into the supplied zip using the given filename.
func addFileToZip(zf *zip.Writer, path, fn string) error {
	f, err := os.Open(path)
	if err != nil {
		return addStringToZip(zf, fn, fmt.Sprintf("failed to open file %s: %v", path, err))
	}
	defer f.Close()
	g, err := zf.Create(fn)
	if err != nil {
		return err
	}
	_, err = io.Copy(g, f)
	return err
}

// Build constructs a .zip file containing debugging information in the given target
// directory.  If targetDir is empty then it will use the user's home or desktop directory.
func Build(targetDir, output string, records []catalog.BackupRecord) (fn string, err error) {
	if targetDir == "" {
		targetDir, err = getDefaultDir()
		if err != nil {
			return "", err
		}
	}

	fn = filepath.Join(targetDir, BundleName)
	debugFile, err := os.Create(fn)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for write: %v", fn, err)
	}
	defer debugFile.Close()

	zf := zip.NewWriter(debugFile)
	if err := addStringToZip(zf, "output.txt", output); err != nil {
		return "", err
	}

	if err := addSysinfoToZip(zf); err != nil {
		return "", err
	}

	for _, r := range records {
		if err := addBackupInfoToZip(zf, r); err != nil {
			return "", err
		}
	}

	if err := zf.Close(); err != nil {
		return "", err
	}
	return fn, debugFile.Close()
}

// addStringToZip adds a string as a new file to a zip file with the given filename
func addStringToZip(zf *zip.Writer, filename, content string) error {
	f, err := zf.Create(filename)
	if err != nil {
		return err
	}
	_, err = f.Write([]byte(content))
	return err
}

// getDefaultDir returns the directory the executable is in,
// or the user's home directory, or the Windows Desktop directory if that
// is not writable
func getDefaultDir() (string, error) {
	dir := filepath.Dir(os.Args[0])
	if dir != "" && isWritable(dir) {
		return dir, nil
	}

	user, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to fetch user information: %v", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(user.HomeDir, "Desktop"), nil
	default:
		return user.HomeDir, nil
	}
}

func isWritable(dir string) bool {
	tf, err := os.CreateTemp(dir, "iosexport")
	if err != nil {
		return false
	}
	defer os.Remove(tf.Name())
	tf.Close()
	return true
}

// oneOf returns true if s matches one of choices.
func oneOf(s string, choices []string) bool {
	for _, ch := range choices {
		if s == ch {
			return true
		}
	}
	return false
}
