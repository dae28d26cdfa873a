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

// Package unlock removes the password protection from a set of PDF files.
//
// For every file, the candidate passwords are tried in order.  The first
// password which opens the file is used to write an unprotected version of
// the file, after a backup of the original has been made.
package unlock

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/pdfunlock/backup"
	"seehuhn.de/go/pdfunlock/decrypt"
	"seehuhn.de/go/pdfunlock/passwd"
)

// Status describes the state of one file.
type Status int

// These are the possible values of [Target.Status].
// Every file starts as Pending and ends in one of the other states,
// unless the run is cancelled first.
const (
	Pending Status = iota
	Unlocked
	AlreadyUnlocked
	Failed
	SkippedDryRun
)

// AllStatus lists all states, in the order used for reports.
var AllStatus = []Status{Unlocked, AlreadyUnlocked, Failed, SkippedDryRun, Pending}

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Unlocked:
		return "unlocked"
	case AlreadyUnlocked:
		return "already-unlocked"
	case Failed:
		return "failed"
	case SkippedDryRun:
		return "skipped-dry-run"
	default:
		return "unlock.Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// These are the values of [Target.Reason] for failed files.
const (
	ReasonNoCandidates = "no candidate passwords"
	ReasonNoMatch      = "no matching password"
	ReasonUnreadable   = "unreadable/corrupt"
	ReasonBackup       = "backup failed"
	ReasonCommit       = "commit failed"
)

// Target is a PDF file, together with the result of processing it.
type Target struct {
	Path   string
	Status Status

	// Reason says why the file could not be unlocked.
	// This is only set if Status is Failed.
	Reason string

	// Err is the error which caused the failure, if any.
	Err error

	// Source is the origin of the password which opened the file.
	// This is set for Unlocked and SkippedDryRun.
	Source passwd.Source

	// Backup is the location of the backup copy of the original file.
	// This is set for Unlocked and SkippedDryRun.
	Backup string
}

// Decrypter tries one password on one file.
// The implementation in package decrypt is used by default.
type Decrypter interface {
	Attempt(fname string, pw passwd.Password) *decrypt.Result
}

// Committer stores the decrypted content of a file.  The argument src
// holds the bytes from which content was decrypted.
// [backup.Commit] is used by default.
type Committer func(original string, src, content []byte, opt *backup.Options) (*backup.Record, error)

// Config holds the settings for [Process] and [Run].
type Config struct {
	Decrypter Decrypter
	Commit    Committer
	Backup    backup.Options

	// Jobs is the number of files processed in parallel.
	// Values smaller than 1 are treated as 1.
	Jobs int

	Logger *slog.Logger
}

func (cfg *Config) withDefaults() *Config {
	res := &Config{}
	if cfg != nil {
		*res = *cfg
	}
	if res.Logger == nil {
		res.Logger = slog.New(slog.DiscardHandler)
	}
	if res.Decrypter == nil {
		res.Decrypter = decrypt.New(res.Logger)
	}
	if res.Commit == nil {
		res.Commit = backup.Commit
	}
	if res.Jobs < 1 {
		res.Jobs = 1
	}
	return res
}

// Process tries the passwords on the file t.Path, in order, and updates t
// with the result.
//
// If ctx is cancelled before a password is found, t is left in the Pending
// state.  Once a password has been found, the file is committed even if
// ctx is cancelled.
func Process(ctx context.Context, t *Target, passwords passwd.List, cfg *Config) *Target {
	cfg = cfg.withDefaults()
	process(ctx, t, passwords, cfg)
	logTarget(cfg.Logger, t)
	return t
}

func process(ctx context.Context, t *Target, passwords passwd.List, cfg *Config) {
	if len(passwords) == 0 {
		t.fail(ReasonNoCandidates, nil)
		return
	}

	for _, pw := range passwords {
		if ctx.Err() != nil {
			return
		}

		res := cfg.Decrypter.Attempt(t.Path, pw)
		if !res.Outcome.Terminal() {
			continue
		}
		switch res.Outcome {
		case decrypt.NotEncrypted:
			t.Status = AlreadyUnlocked
		case decrypt.Success:
			t.commit(res, pw.Source(), cfg)
		case decrypt.IOError:
			t.fail(ReasonUnreadable, res.Err)
		default:
			t.fail(ReasonUnreadable, errors.New("unexpected outcome "+res.Outcome.String()))
		}
		return
	}
	t.fail(ReasonNoMatch, nil)
}

func (t *Target) commit(res *decrypt.Result, src passwd.Source, cfg *Config) {
	rec, err := cfg.Commit(t.Path, res.Original, res.Content, &cfg.Backup)
	if err != nil {
		var commitErr *backup.CommitError
		if errors.As(err, &commitErr) {
			t.fail(ReasonCommit, err)
		} else {
			t.fail(ReasonBackup, err)
		}
		return
	}

	t.Source = src
	t.Backup = rec.Backup
	if cfg.Backup.DryRun {
		t.Status = SkippedDryRun
	} else {
		t.Status = Unlocked
	}
}

func (t *Target) fail(reason string, err error) {
	t.Status = Failed
	t.Reason = reason
	t.Err = err
}

func logTarget(logger *slog.Logger, t *Target) {
	switch t.Status {
	case Unlocked:
		logger.Info("unlocked", "file", t.Path, "source", t.Source, "backup", t.Backup)
	case SkippedDryRun:
		logger.Info("would unlock", "file", t.Path, "source", t.Source, "backup", t.Backup)
	case AlreadyUnlocked:
		logger.Info("already unlocked", "file", t.Path)
	case Failed:
		if t.Err != nil {
			logger.Warn("failed", "file", t.Path, "reason", t.Reason, "error", t.Err)
		} else {
			logger.Warn("failed", "file", t.Path, "reason", t.Reason)
		}
	case Pending:
		logger.Debug("not processed", "file", t.Path)
	}
}

// Run processes all files and returns the summary of the results.
// Targets in the summary are in the order of paths.
//
// If ctx is cancelled, the files not yet started are left in the Pending
// state.  Files already in progress are completed.
func Run(ctx context.Context, paths []string, passwords passwd.List, cfg *Config) *Summary {
	cfg = cfg.withDefaults()

	targets := make([]*Target, len(paths))
	for i, p := range paths {
		targets[i] = &Target{Path: p}
	}

	g := &errgroup.Group{}
	g.SetLimit(cfg.Jobs)
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			Process(ctx, t, passwords, cfg)
			return nil
		})
	}
	g.Wait()

	return Summarize(targets)
}
