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

package unlock_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfunlock/backup"
	"seehuhn.de/go/pdfunlock/decrypt"
	"seehuhn.de/go/pdfunlock/passwd"
	"seehuhn.de/go/pdfunlock/unlock"
)

// fakeFile describes how a fakeDecrypter reacts to a file.
type fakeFile struct {
	password string
	outcome  decrypt.Outcome // if set, returned for every password
}

// fakeDecrypter records all attempts.
type fakeDecrypter struct {
	files map[string]fakeFile

	mu    sync.Mutex
	tried map[string][]string
}

func newFake(files map[string]fakeFile) *fakeDecrypter {
	return &fakeDecrypter{files: files, tried: make(map[string][]string)}
}

func (f *fakeDecrypter) Attempt(fname string, pw passwd.Password) *decrypt.Result {
	f.mu.Lock()
	f.tried[fname] = append(f.tried[fname], pw.Reveal())
	f.mu.Unlock()

	file, ok := f.files[fname]
	switch {
	case !ok:
		return &decrypt.Result{Outcome: decrypt.IOError, Err: errors.New("no such file")}
	case file.outcome == decrypt.IOError:
		return &decrypt.Result{Outcome: decrypt.IOError, Err: errors.New("corrupt")}
	case file.outcome != 0:
		return &decrypt.Result{Outcome: file.outcome}
	case pw.Reveal() == file.password:
		return &decrypt.Result{
			Outcome:  decrypt.Success,
			Content:  []byte("decrypted " + fname),
			Original: []byte("encrypted " + fname),
		}
	default:
		return &decrypt.Result{Outcome: decrypt.WrongPassword}
	}
}

// fakeCommitter records all commits, without touching the file system.
type fakeCommitter struct {
	err error

	mu        sync.Mutex
	committed []string
	sources   []string
}

func (c *fakeCommitter) commit(original string, src, content []byte, opt *backup.Options) (*backup.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.committed = append(c.committed, original)
	c.sources = append(c.sources, string(src))
	rec := &backup.Record{
		Original: original,
		Backup:   "backup/" + original,
		Planned:  opt.DryRun,
	}
	return rec, nil
}

func candidates() passwd.List {
	return passwd.List{
		passwd.New("cli", passwd.SourceCLI),
		passwd.New("d1", passwd.SourceDictionary),
		passwd.New("d2", passwd.SourceDictionary),
		passwd.New("env", passwd.SourceEnv),
		passwd.New("", passwd.SourceEmpty),
	}
}

func TestAttemptOrder(t *testing.T) {
	dec := newFake(map[string]fakeFile{"a.pdf": {password: "env"}})
	com := &fakeCommitter{}
	cfg := &unlock.Config{Decrypter: dec, Commit: com.commit}

	target := unlock.Process(context.Background(), &unlock.Target{Path: "a.pdf"}, candidates(), cfg)

	if target.Status != unlock.Unlocked {
		t.Fatalf("got %s, want %s", target.Status, unlock.Unlocked)
	}
	if target.Source != passwd.SourceEnv {
		t.Errorf("got source %s, want %s", target.Source, passwd.SourceEnv)
	}
	// the attempts stop at the first match
	if d := cmp.Diff([]string{"cli", "d1", "d2", "env"}, dec.tried["a.pdf"]); d != "" {
		t.Errorf("wrong attempts (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{"a.pdf"}, com.committed); d != "" {
		t.Errorf("wrong commits (-want +got):\n%s", d)
	}
}

func TestProcess(t *testing.T) {
	backupErr := &backup.BackupError{Path: "f.pdf", Err: errors.New("disk full")}
	commitErr := &backup.CommitError{Path: "f.pdf", Err: errors.New("rename failed")}

	testCases := []struct {
		name       string
		file       fakeFile
		passwords  passwd.List
		commitErr  error
		dryRun     bool
		wantStatus unlock.Status
		wantReason string
		wantTries  int
	}{
		{
			name:       "first password",
			file:       fakeFile{password: "cli"},
			passwords:  candidates(),
			wantStatus: unlock.Unlocked,
			wantTries:  1,
		},
		{
			name:       "empty password",
			file:       fakeFile{password: ""},
			passwords:  candidates(),
			wantStatus: unlock.Unlocked,
			wantTries:  5,
		},
		{
			name:       "dry run",
			file:       fakeFile{password: "d2"},
			passwords:  candidates(),
			dryRun:     true,
			wantStatus: unlock.SkippedDryRun,
			wantTries:  3,
		},
		{
			name:       "not encrypted",
			file:       fakeFile{outcome: decrypt.NotEncrypted},
			passwords:  candidates(),
			wantStatus: unlock.AlreadyUnlocked,
			wantTries:  1,
		},
		{
			name:       "corrupt",
			file:       fakeFile{outcome: decrypt.IOError},
			passwords:  candidates(),
			wantStatus: unlock.Failed,
			wantReason: unlock.ReasonUnreadable,
			wantTries:  1,
		},
		{
			name:       "no match",
			file:       fakeFile{password: "other"},
			passwords:  candidates(),
			wantStatus: unlock.Failed,
			wantReason: unlock.ReasonNoMatch,
			wantTries:  5,
		},
		{
			name:       "no candidates",
			file:       fakeFile{password: "cli"},
			passwords:  nil,
			wantStatus: unlock.Failed,
			wantReason: unlock.ReasonNoCandidates,
			wantTries:  0,
		},
		{
			name:       "no candidates, not encrypted",
			file:       fakeFile{outcome: decrypt.NotEncrypted},
			passwords:  passwd.List{},
			wantStatus: unlock.Failed,
			wantReason: unlock.ReasonNoCandidates,
			wantTries:  0,
		},
		{
			name:       "backup error",
			file:       fakeFile{password: "cli"},
			passwords:  candidates(),
			commitErr:  backupErr,
			wantStatus: unlock.Failed,
			wantReason: unlock.ReasonBackup,
			wantTries:  1,
		},
		{
			name:       "commit error",
			file:       fakeFile{password: "cli"},
			passwords:  candidates(),
			commitErr:  commitErr,
			wantStatus: unlock.Failed,
			wantReason: unlock.ReasonCommit,
			wantTries:  1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dec := newFake(map[string]fakeFile{"f.pdf": tc.file})
			com := &fakeCommitter{err: tc.commitErr}
			cfg := &unlock.Config{
				Decrypter: dec,
				Commit:    com.commit,
				Backup:    backup.Options{DryRun: tc.dryRun},
			}

			target := unlock.Process(context.Background(), &unlock.Target{Path: "f.pdf"}, tc.passwords, cfg)

			if target.Status != tc.wantStatus {
				t.Errorf("got status %s, want %s", target.Status, tc.wantStatus)
			}
			if target.Reason != tc.wantReason {
				t.Errorf("got reason %q, want %q", target.Reason, tc.wantReason)
			}
			if got := len(dec.tried["f.pdf"]); got != tc.wantTries {
				t.Errorf("got %d attempts, want %d", got, tc.wantTries)
			}
			if tc.commitErr != nil && !errors.Is(target.Err, tc.commitErr) {
				t.Errorf("error not kept: %v", target.Err)
			}
			if target.Status == unlock.AlreadyUnlocked && len(com.committed) > 0 {
				t.Error("unencrypted file was committed")
			}
			if target.Status == unlock.Unlocked {
				want := []string{"encrypted f.pdf"}
				if d := cmp.Diff(want, com.sources); d != "" {
					t.Errorf("wrong source bytes (-want +got):\n%s", d)
				}
			}
		})
	}
}

func TestRunParallel(t *testing.T) {
	const n = 40
	files := make(map[string]fakeFile)
	var paths []string
	for i := range n {
		name := fmt.Sprintf("f%02d.pdf", i)
		paths = append(paths, name)
		switch i % 4 {
		case 0:
			files[name] = fakeFile{password: "d1"}
		case 1:
			files[name] = fakeFile{outcome: decrypt.NotEncrypted}
		case 2:
			files[name] = fakeFile{password: "nope"}
		case 3:
			files[name] = fakeFile{password: ""}
		}
	}

	for _, jobs := range []int{1, 4, 100} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			dec := newFake(files)
			com := &fakeCommitter{}
			cfg := &unlock.Config{Decrypter: dec, Commit: com.commit, Jobs: jobs}

			summary := unlock.Run(context.Background(), paths, candidates(), cfg)

			want := map[unlock.Status]int{
				unlock.Unlocked:        n / 2,
				unlock.AlreadyUnlocked: n / 4,
				unlock.Failed:          n / 4,
			}
			if d := cmp.Diff(want, summary.Counts); d != "" {
				t.Errorf("wrong counts (-want +got):\n%s", d)
			}
			for i, target := range summary.Targets {
				if target.Path != paths[i] {
					t.Fatalf("target %d is %q, want %q", i, target.Path, paths[i])
				}
			}
			// every file is handled by exactly one worker
			for _, p := range paths {
				tried := dec.tried[p]
				if len(tried) == 0 || len(tried) > len(candidates()) {
					t.Errorf("%s: %d attempts", p, len(tried))
				}
			}
			if len(com.committed) != n/2 {
				t.Errorf("got %d commits, want %d", len(com.committed), n/2)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	dec := newFake(map[string]fakeFile{"a.pdf": {password: "cli"}, "b.pdf": {password: "cli"}})
	com := &fakeCommitter{}
	cfg := &unlock.Config{Decrypter: dec, Commit: com.commit}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := unlock.Run(ctx, []string{"a.pdf", "b.pdf"}, candidates(), cfg)

	if summary.Complete() {
		t.Error("cancelled run reported as complete")
	}
	if d := cmp.Diff(map[unlock.Status]int{unlock.Pending: 2}, summary.Counts); d != "" {
		t.Errorf("wrong counts (-want +got):\n%s", d)
	}
	if len(dec.tried) != 0 || len(com.committed) != 0 {
		t.Error("files were touched after cancellation")
	}
}

// cancelAfter cancels the context after the given number of attempts.
type cancelAfter struct {
	*fakeDecrypter
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Attempt(fname string, pw passwd.Password) *decrypt.Result {
	res := c.fakeDecrypter.Attempt(fname, pw)
	c.n--
	if c.n == 0 {
		c.cancel()
	}
	return res
}

func TestProcessCancelledBetweenCandidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dec := &cancelAfter{
		fakeDecrypter: newFake(map[string]fakeFile{"a.pdf": {password: "env"}}),
		n:             2,
		cancel:        cancel,
	}
	cfg := &unlock.Config{Decrypter: dec, Commit: (&fakeCommitter{}).commit}

	target := unlock.Process(ctx, &unlock.Target{Path: "a.pdf"}, candidates(), cfg)
	if target.Status != unlock.Pending {
		t.Errorf("got %s, want %s", target.Status, unlock.Pending)
	}
	if d := cmp.Diff([]string{"cli", "d1"}, dec.tried["a.pdf"]); d != "" {
		t.Errorf("wrong attempts (-want +got):\n%s", d)
	}
}

func TestSummarize(t *testing.T) {
	targets := []*unlock.Target{
		{Path: "a", Status: unlock.Unlocked},
		{Path: "b", Status: unlock.Failed, Reason: unlock.ReasonNoMatch},
		{Path: "c", Status: unlock.Failed, Reason: unlock.ReasonUnreadable},
		{Path: "d", Status: unlock.AlreadyUnlocked},
		{Path: "e", Status: unlock.Pending},
	}
	s := unlock.Summarize(targets)

	if s.Total() != 5 || s.Processed() != 4 || s.Failed() != 2 {
		t.Errorf("got total=%d processed=%d failed=%d", s.Total(), s.Processed(), s.Failed())
	}
	if s.Complete() {
		t.Error("summary with pending target reported as complete")
	}

	// Summarize is a fold over Add
	s2 := &unlock.Summary{}
	for _, target := range targets {
		s2.Add(target)
	}
	if d := cmp.Diff(s, s2); d != "" {
		t.Errorf("Add and Summarize differ (-Summarize +Add):\n%s", d)
	}
}

func TestStatusString(t *testing.T) {
	var got []string
	for _, s := range unlock.AllStatus {
		got = append(got, s.String())
	}
	want := []string{"unlocked", "already-unlocked", "failed", "skipped-dry-run", "pending"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("wrong names (-want +got):\n%s", d)
	}
}
