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

package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Check verifies, without changing anything, that a backup of original
// could be made and that the original could be replaced.  It returns the
// location of the backup.
func Check(original string, opt *Options) (string, error) {
	backupPath, err := Path(original, opt)
	if err != nil {
		return "", err
	}

	err = verifyReadable(original)
	if err != nil {
		return "", err
	}
	err = writable(filepath.Dir(original))
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(backupPath)
	switch {
	case err == nil && fi.Mode().IsRegular():
		return backupPath, nil
	case err == nil:
		return "", fmt.Errorf("%s exists but is not a regular file", backupPath)
	case !errors.Is(err, fs.ErrNotExist):
		return "", err
	}

	// find the closest existing ancestor of the backup directory
	dir := filepath.Dir(backupPath)
	for {
		fi, err := os.Stat(dir)
		if err == nil {
			if !fi.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			break
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", err
		}
		dir = parent
	}
	err = writable(dir)
	if err != nil {
		return "", err
	}
	return backupPath, nil
}
