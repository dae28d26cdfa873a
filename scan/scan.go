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

// Package scan finds PDF files in a directory tree.
package scan

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// Options control which parts of the tree are searched.
type Options struct {
	// SkipNames lists directory names which are not entered.
	SkipNames []string

	// SkipPaths lists directories which are not entered.
	SkipPaths []string

	// Logger receives warnings about unreadable directories.
	Logger *slog.Logger
}

// FindPDFs returns the regular files below root which have the extension
// ".pdf", in any capitalization.  The result is sorted.
//
// Subdirectories which cannot be read are skipped with a warning.  An error
// is only returned if root itself cannot be read.
func FindPDFs(root string, opt *Options) ([]string, error) {
	if opt == nil {
		opt = &Options{}
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	skip := make(map[string]bool, len(opt.SkipPaths))
	for _, p := range opt.SkipPaths {
		skip[filepath.Clean(p)] = true
	}

	var res []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("cannot read directory", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && (slices.Contains(opt.SkipNames, d.Name()) || skip[filepath.Clean(path)]) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			res = append(res, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(res)
	return res, nil
}
