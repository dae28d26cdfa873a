// seehuhn.de/go/pdfunlock - remove password protection from PDF files in bulk
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package backup replaces a file by new content, keeping a copy of the
// old content.
//
// [Commit] first makes sure that a complete copy of the original file exists
// in the backup location, and only then replaces the original by renaming a
// fully written temporary file over it.  At every point in time either the
// original file is unchanged, or it holds the new content and a verified
// backup exists.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirName is the default name of the backup directories.
const DefaultDirName = "pdf_with_password"

// ErrChanged is returned, wrapped in a [*BackupError], if the original file
// no longer holds the bytes which were decrypted.
var ErrChanged = errors.New("file changed since it was read")

// partialSuffix is appended to the name of a backup while it is being
// written.
const partialSuffix = ".partial"

// Options control where backups are stored.
type Options struct {
	// DirName is the name of the backup directory, which is created next to
	// each original file.  If this is empty, DefaultDirName is used.
	DirName string

	// Root, if set, is used instead of per-directory backup directories.
	// The backup of a file is stored under Root, at the position of the
	// file relative to ScanRoot.
	Root     string
	ScanRoot string

	// DryRun disables all changes to the file system.
	DryRun bool
}

func (opt *Options) dirName() string {
	if opt == nil || opt.DirName == "" {
		return DefaultDirName
	}
	return opt.DirName
}

// Record describes the backup of one file.
type Record struct {
	Original string
	Backup   string

	// Existing is set if the backup was already present and has been kept.
	Existing bool

	// Planned is set for dry runs, where nothing was written.
	Planned bool
}

// BackupError indicates that the backup copy could not be created.
// The original file has not been changed.
type BackupError struct {
	Path string
	Err  error
}

func (err *BackupError) Error() string {
	return "backup of " + err.Path + " failed: " + err.Err.Error()
}

func (err *BackupError) Unwrap() error {
	return err.Err
}

// CommitError indicates that the new content could not be put in place.
// The original file has not been changed, and the backup is still present.
type CommitError struct {
	Path string
	Err  error
}

func (err *CommitError) Error() string {
	return "replacing " + err.Path + " failed: " + err.Err.Error()
}

func (err *CommitError) Unwrap() error {
	return err.Err
}

// Path returns the backup location for the given file.
func Path(original string, opt *Options) (string, error) {
	dir, base := filepath.Split(original)
	if base == "" {
		return "", fmt.Errorf("%q is not a file name", original)
	}
	if opt != nil && opt.Root != "" {
		rel, err := filepath.Rel(opt.ScanRoot, filepath.Clean(dir))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%q is outside %q", original, opt.ScanRoot)
		}
		return filepath.Join(opt.Root, rel, base), nil
	}
	return filepath.Join(dir, opt.dirName(), base), nil
}

// these are replaced in tests
var (
	rename = os.Rename
	remove = os.Remove
)

// Commit replaces the contents of the file original by content, after
// making a backup copy of the file.
//
// If src is not nil, it must be the current contents of the file, from
// which content was derived.  The backup is made from src, and if the file
// no longer holds src, Commit fails with [ErrChanged].  If src is nil, the
// file is read from disk.
//
// If a backup already exists, it is kept unchanged and no new backup is
// made.  In dry-run mode, Commit only checks whether the backup could be
// created and returns the planned record.
//
// Errors are of type [*BackupError] or [*CommitError].  In both cases the
// original file is unchanged.
func Commit(original string, src, content []byte, opt *Options) (*Record, error) {
	if opt != nil && opt.DryRun {
		backupPath, err := Check(original, opt)
		if err != nil {
			return nil, &BackupError{Path: original, Err: err}
		}
		rec := &Record{
			Original: original,
			Backup:   backupPath,
			Planned:  true,
		}
		return rec, nil
	}

	rec, err := Ensure(original, src, opt)
	if err != nil {
		return nil, err
	}

	if src != nil {
		err = checkUnchanged(original, src)
		if err != nil {
			return nil, &BackupError{Path: original, Err: err}
		}
	}

	err = Replace(original, content)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Ensure makes sure that a complete backup of the file exists.
// If src is not nil, it is used as the contents of the file, see [Commit].
// Errors are of type [*BackupError].
func Ensure(original string, src []byte, opt *Options) (*Record, error) {
	backupPath, err := Path(original, opt)
	if err != nil {
		return nil, &BackupError{Path: original, Err: err}
	}
	rec := &Record{
		Original: original,
		Backup:   backupPath,
	}

	fi, err := os.Stat(backupPath)
	switch {
	case err == nil && fi.Mode().IsRegular():
		err = verifyReadable(backupPath)
		if err != nil {
			return nil, &BackupError{Path: original, Err: err}
		}
		rec.Existing = true
		return rec, nil
	case err == nil:
		err = fmt.Errorf("%s exists but is not a regular file", backupPath)
		return nil, &BackupError{Path: original, Err: err}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, &BackupError{Path: original, Err: err}
	}

	err = copyFile(backupPath, original, src)
	if err != nil {
		return nil, &BackupError{Path: original, Err: err}
	}
	return rec, nil
}

// copyFile copies the file original to dst.  If data is not nil, it must
// equal the contents of original and is written instead of re-reading the
// file.  The copy is written under a temporary name, checked, and then
// renamed, so that dst is either absent or complete.
func copyFile(dst, original string, data []byte) error {
	fi, err := os.Stat(original)
	if err != nil {
		return err
	}
	if data == nil {
		data, err = os.ReadFile(original)
		if err != nil {
			return err
		}
	} else {
		err = checkUnchanged(original, data)
		if err != nil {
			return err
		}
	}

	// MkdirAll succeeds if the directory is created concurrently.
	err = os.MkdirAll(filepath.Dir(dst), 0o755)
	if err != nil {
		return err
	}

	// A partial file left by an interrupted run may be read-only.
	partial := dst + partialSuffix
	err = remove(partial)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	err = writeSynced(partial, data, fi.Mode().Perm())
	if err != nil {
		remove(partial)
		return err
	}
	err = checkSize(partial, int64(len(data)))
	if err != nil {
		remove(partial)
		return err
	}
	// like `cp -p`, keep the modification time of the original
	os.Chtimes(partial, fi.ModTime(), fi.ModTime())

	err = rename(partial, dst)
	if err != nil {
		remove(partial)
		return err
	}
	syncDir(filepath.Dir(dst))

	err = checkSize(dst, int64(len(data)))
	if err != nil {
		return err
	}
	return verifyReadable(dst)
}

// Replace atomically replaces the contents of fname.  The new contents are
// written to a temporary file in the same directory, which is then renamed
// to fname.  Errors are of type [*CommitError].
func Replace(fname string, content []byte) error {
	fi, err := os.Stat(fname)
	if err != nil {
		return &CommitError{Path: fname, Err: err}
	}

	dir, base := filepath.Split(fname)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return &CommitError{Path: fname, Err: err}
	}
	tmpName := tmp.Name()

	err = fillSynced(tmp, content, fi.Mode().Perm())
	if err == nil {
		err = checkSize(tmpName, int64(len(content)))
	}
	if err == nil {
		err = rename(tmpName, fname)
	}
	if err != nil {
		remove(tmpName)
		return &CommitError{Path: fname, Err: err}
	}

	syncDir(dir)
	return nil
}

// writeSynced creates fname, which must not exist yet, and fills it with
// data.  The permissions are set after writing.
func writeSynced(fname string, data []byte, perm fs.FileMode) error {
	fd, err := os.OpenFile(fname, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	return fillSynced(fd, data, perm)
}

// fillSynced writes data to fd, flushes it to disk and closes fd.
func fillSynced(fd *os.File, data []byte, perm fs.FileMode) error {
	_, err := fd.Write(data)
	if err == nil {
		err = fd.Chmod(perm)
	}
	if err == nil {
		err = fd.Sync()
	}
	err2 := fd.Close()
	if err == nil {
		err = err2
	}
	return err
}

// checkUnchanged verifies that fname holds exactly the bytes data.
func checkUnchanged(fname string, data []byte) error {
	current, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	if !bytes.Equal(current, data) {
		return ErrChanged
	}
	return nil
}

func checkSize(fname string, size int64) error {
	fi, err := os.Stat(fname)
	if err != nil {
		return err
	}
	if fi.Size() != size {
		return fmt.Errorf("%s: size is %d, expected %d", fname, fi.Size(), size)
	}
	return nil
}

func verifyReadable(fname string) error {
	fd, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer fd.Close()
	var buf [1]byte
	_, err = fd.Read(buf[:])
	if err == io.EOF {
		err = nil
	}
	return err
}

// syncDir flushes directory entries to disk.  Not all platforms support this,
// so errors are ignored.
func syncDir(dir string) {
	fd, err := os.Open(dir)
	if err != nil {
		return
	}
	fd.Sync()
	fd.Close()
}
