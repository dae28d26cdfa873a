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

package passwd

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultEnvVar is the environment variable which is consulted for an
// additional password.
const DefaultEnvVar = "PDFMASSUNLOCK_PASSWORD"

// Config describes the password sources for [Resolve].
type Config struct {
	// Password is a single password given on the command line.
	// The empty string means that no password was given.
	Password string

	// Prompt, if non-nil, is called once to ask the user for a password.
	Prompt func() (string, error)

	// Dictionary is the name of a file with one password per line.
	// If the file does not exist and the name is relative, the file is
	// also looked for relative to ScanRoot.
	Dictionary string
	ScanRoot   string

	// EnvVar is the name of the environment variable to read.
	// If this is empty, DefaultEnvVar is used.
	EnvVar string

	// LookupEnv is used to read the environment.
	// If this is nil, os.LookupEnv is used.
	LookupEnv func(string) (string, bool)

	// TryEmpty adds the empty password at the end of the list.
	TryEmpty bool
}

// SourceError reports a password source which could not be used.
// The source is skipped, the remaining sources are still used.
type SourceError struct {
	Source Source
	Path   string
	Err    error
}

func (err *SourceError) Error() string {
	msg := err.Source.String() + " source unavailable"
	if err.Path != "" {
		msg += " (" + err.Path + ")"
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *SourceError) Unwrap() error {
	return err.Err
}

// Resolve returns the candidate passwords, in the order in which they
// should be tried: the command line password, the prompted password, the
// dictionary entries, the environment variable, and finally the empty
// password.  Duplicates are removed, keeping the first occurrence.
//
// If some sources cannot be used, Resolve returns the candidates from the
// remaining sources together with a non-nil error, which wraps one
// [*SourceError] per unusable source.  The returned list may be empty.
func Resolve(cfg *Config) (List, error) {
	var res List
	var errs []error
	seen := make(map[string]bool)

	if cfg.Password != "" {
		res = res.add(seen, New(cfg.Password, SourceCLI))
	}

	if cfg.Prompt != nil {
		pw, err := cfg.Prompt()
		if err != nil {
			errs = append(errs, &SourceError{Source: SourcePrompt, Err: err})
		} else if pw != "" {
			res = res.add(seen, New(pw, SourcePrompt))
		}
	}

	if cfg.Dictionary != "" {
		words, err := readDictionaryFile(cfg.Dictionary, cfg.ScanRoot)
		if err != nil {
			errs = append(errs, err)
		}
		for _, w := range words {
			res = res.add(seen, New(w, SourceDictionary))
		}
	}

	envVar := cfg.EnvVar
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	lookupEnv := cfg.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if val, ok := lookupEnv(envVar); ok && val != "" {
		res = res.add(seen, New(val, SourceEnv))
	}

	if cfg.TryEmpty {
		res = res.add(seen, New("", SourceEmpty))
	}

	return res, errors.Join(errs...)
}

// FindDictionary locates the dictionary file.  If fname does not exist and
// is a relative path, the file is looked up relative to scanRoot.
func FindDictionary(fname, scanRoot string) (string, error) {
	_, err := os.Stat(fname)
	if err == nil {
		return fname, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !filepath.IsAbs(fname) && scanRoot != "" {
		alt := filepath.Join(scanRoot, fname)
		if _, altErr := os.Stat(alt); altErr == nil {
			return alt, nil
		}
	}
	return "", &SourceError{Source: SourceDictionary, Path: fname, Err: err}
}

func readDictionaryFile(fname, scanRoot string) ([]string, error) {
	fname, err := FindDictionary(fname, scanRoot)
	if err != nil {
		return nil, err
	}

	fd, err := os.Open(fname)
	if err != nil {
		return nil, &SourceError{Source: SourceDictionary, Path: fname, Err: err}
	}
	defer fd.Close()

	words, err := ReadDictionary(fd)
	if err != nil {
		return words, &SourceError{Source: SourceDictionary, Path: fname, Err: err}
	}
	return words, nil
}

// ReadDictionary reads passwords from r, one per line.
//
// Only the line terminator is removed from each line, leading and trailing
// spaces are kept as part of the password.  Lines are converted to Unicode
// normalization form NFKC.  A byte order mark at the start of the input,
// blank lines and lines starting with '#' are ignored.
func ReadDictionary(r io.Reader) ([]string, error) {
	var res []string
	br := bufio.NewReader(r)
	first := true
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if first {
				line = strings.TrimPrefix(line, "\ufeff")
			}
			first = false

			line = strings.TrimRight(line, "\r\n")
			line = norm.NFKC.String(line)
			trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				res = append(res, line)
			}
		}

		if err == io.EOF {
			return res, nil
		} else if err != nil {
			return res, err
		}
	}
}
