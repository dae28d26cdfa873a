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

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"seehuhn.de/go/pdfunlock/backup"
)

// defaultConfigPaths lists the configuration files.  Settings in later
// files override earlier ones.  Missing files are ignored.
var defaultConfigPaths = []string{
	"~/.config/pdf-mass-unlock/config.yaml",
	"./.pdf-mass-unlock.yaml",
}

// configError is a problem with the command line or the configuration
// file.  Nothing has been changed on disk when this is reported.
type configError struct {
	msg string
	err error
}

func (err *configError) Error() string {
	if err.err == nil {
		return err.msg
	}
	return err.msg + ": " + err.err.Error()
}

func (err *configError) Unwrap() error {
	return err.err
}

// settings are the validated options for a run.
type settings struct {
	root       string
	password   string
	prompt     bool
	dictionary string
	tryEmpty   bool
	backup     backup.Options
	summary    bool
	jobs       int
}

// settings checks the command line options and converts them into the
// form used by the rest of the program.  Deprecation warnings are sent to
// logger.
func (c *cli) settings(logger *slog.Logger) (*settings, error) {
	root, err := filepath.Abs(c.Path)
	if err != nil {
		return nil, &configError{msg: "invalid --path", err: err}
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, &configError{msg: "invalid --path", err: err}
	}
	if !fi.IsDir() {
		return nil, &configError{msg: fmt.Sprintf("--path %s is not a directory", c.Path)}
	}

	dirName := c.BackupDirName
	switch {
	case c.BackupRoot != "" && dirName != "":
		logger.Warn("--backup-root is deprecated and ignored, since --backup-dir-name is given")
	case c.BackupRoot != "":
		dirName = filepath.Base(filepath.Clean(c.BackupRoot))
		logger.Warn("--backup-root is deprecated, use --backup-dir-name instead", "backup-dir-name", dirName)
	case dirName == "":
		dirName = backup.DefaultDirName
	}
	err = checkDirName(dirName)
	if err != nil {
		return nil, &configError{msg: "invalid backup directory name", err: err}
	}

	if c.Jobs < 1 {
		return nil, &configError{msg: fmt.Sprintf("--jobs must be at least 1, not %d", c.Jobs)}
	}

	s := &settings{
		root:       root,
		password:   c.Password,
		prompt:     c.Prompt,
		dictionary: c.Dictionary,
		tryEmpty:   c.TryEmpty,
		backup: backup.Options{
			DirName: dirName,
			DryRun:  c.DryRun,
		},
		summary: c.Summary,
		jobs:    c.Jobs,
	}
	if c.BackupTree != "" {
		tree, err := filepath.Abs(c.BackupTree)
		if err != nil {
			return nil, &configError{msg: "invalid --backup-tree", err: err}
		}
		s.backup.Root = tree
		s.backup.ScanRoot = root
	}
	return s, nil
}

func checkDirName(name string) error {
	switch {
	case name == "." || name == "..":
		return fmt.Errorf("%q is not allowed", name)
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("%q must not contain a path separator", name)
	}
	return nil
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, ok := levelNames[strings.ToLower(level)]
	if !ok {
		return nil, &configError{msg: fmt.Sprintf("unknown log level %q", level)}
	}
	opt := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, opt)
	case "text", "":
		h = slog.NewTextHandler(w, opt)
	default:
		return nil, &configError{msg: fmt.Sprintf("unknown log format %q", format)}
	}
	return slog.New(h), nil
}

// configOnlyFromCommandLine lists the flags which cannot be set in a
// configuration file.
var configOnlyFromCommandLine = []string{"password", "path"}

// yamlLoader reads a configuration file.  The keys are the long flag
// names, with either dashes or underscores.
func yamlLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	err := yaml.NewDecoder(r).Decode(&values)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &configError{msg: "invalid configuration file", err: err}
	}

	normalized := make(map[string]any, len(values))
	for key, val := range values {
		key = strings.ReplaceAll(key, "_", "-")
		for _, forbidden := range configOnlyFromCommandLine {
			if key == forbidden {
				return nil, &configError{msg: fmt.Sprintf("%q cannot be set in the configuration file", key)}
			}
		}
		normalized[key] = val
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		return normalized[flag.Name], nil
	}
	return f, nil
}
