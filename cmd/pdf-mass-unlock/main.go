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

// Pdf-mass-unlock removes the password protection from all PDF files in a
// directory tree.
//
// Candidate passwords are taken from the command line, a dictionary file
// and the environment variable PDFMASSUNLOCK_PASSWORD.  Before a file is
// replaced by its unprotected version, the original is copied into a backup
// directory next to it.
//
// Exit status is 0 if no file failed, 1 if at least one file could not be
// unlocked, 2 for invalid configuration and 130 if the run was interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"seehuhn.de/go/pdfunlock/backup"
	"seehuhn.de/go/pdfunlock/decrypt"
	"seehuhn.de/go/pdfunlock/internal/buildinfo"
	"seehuhn.de/go/pdfunlock/internal/profile"
	"seehuhn.de/go/pdfunlock/passwd"
	"seehuhn.de/go/pdfunlock/scan"
	"seehuhn.de/go/pdfunlock/unlock"
)

const toolName = "pdf-mass-unlock"

// Exit codes.
const (
	exitOK          = 0
	exitFailed      = 1
	exitConfig      = 2
	exitInterrupted = 130
)

type cli struct {
	Path       string `required:"" placeholder:"DIR" help:"Directory to scan for PDF files."`
	Password   string `placeholder:"PASSWORD" help:"Password to try first."`
	Prompt     bool   `help:"Ask for a password on the terminal."`
	Dictionary string `default:"dictionary.txt" placeholder:"FILE" help:"File with one candidate password per line."`
	TryEmpty   bool   `help:"Also try the empty password."`

	BackupDirName string `placeholder:"NAME" help:"Name of the backup directories (default \"${default_backup_dir}\")."`
	BackupRoot    string `hidden:"" help:"Deprecated alias for --backup-dir-name."`
	BackupTree    string `placeholder:"DIR" help:"Keep all backups below DIR, mirroring the scanned tree."`

	DryRun  bool `help:"Only report what would be done."`
	Summary bool `help:"Print a summary table at the end."`
	Jobs    int  `default:"1" help:"Number of files to process in parallel."`

	LogLevel  string `default:"info" help:"Log level: debug, info, warn or error."`
	LogFormat string `default:"text" enum:"text,json" help:"Log format: text or json."`

	Version kong.VersionFlag `help:"Print the version and exit."`

	CPUProfile string `hidden:"" name:"cpu-profile" type:"path" help:"Write a CPU profile to this file."`
	MemProfile string `hidden:"" name:"mem-profile" type:"path" help:"Write a memory profile to this file."`
}

// exitCode is used to stop kong from terminating the process.
type exitCode int

// runner holds everything a run needs from the outside world.
type runner struct {
	stdout      io.Writer
	stderr      io.Writer
	lookupEnv   func(string) (string, bool)
	prompt      func() (string, error)
	configPaths []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		lookupEnv:   os.LookupEnv,
		prompt:      readPassword,
		configPaths: defaultConfigPaths,
	}
	code := r.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (r *runner) run(ctx context.Context, args []string) (code int) {
	defer func() {
		if v := recover(); v != nil {
			c, ok := v.(exitCode)
			if !ok {
				panic(v)
			}
			code = int(c)
		}
	}()

	c := &cli{}
	parser, err := kong.New(c,
		kong.Name(toolName),
		kong.Description("Remove the password protection from all PDF files in a directory tree."),
		kong.Vars{
			"version":            buildinfo.Version(toolName),
			"default_backup_dir": backup.DefaultDirName,
		},
		kong.Writers(r.stdout, r.stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Configuration(yamlLoader, r.configPaths...),
	)
	if err != nil {
		fmt.Fprintf(r.stderr, "%s: error: %v\n", toolName, err)
		return exitConfig
	}
	_, err = parser.Parse(args)
	if err != nil {
		fmt.Fprintf(r.stderr, "%s: error: %v\n", toolName, err)
		return exitConfig
	}

	logger, err := newLogger(r.stderr, c.LogLevel, c.LogFormat)
	if err != nil {
		fmt.Fprintf(r.stderr, "%s: error: %v\n", toolName, err)
		return exitConfig
	}
	logger = logger.With("run", uuid.New())

	s, err := c.settings(logger)
	if err != nil {
		fmt.Fprintf(r.stderr, "%s: error: %v\n", toolName, err)
		return exitConfig
	}

	prof, err := profile.Start(c.CPUProfile, c.MemProfile)
	if err != nil {
		fmt.Fprintf(r.stderr, "%s: error: %v\n", toolName, err)
		return exitConfig
	}
	defer func() {
		err := prof.Stop()
		if err != nil {
			logger.Error("cannot write profile", "error", err)
		}
	}()

	return r.unlockAll(ctx, s, logger)
}

func (r *runner) unlockAll(ctx context.Context, s *settings, logger *slog.Logger) int {
	pwCfg := &passwd.Config{
		Password:   s.password,
		Dictionary: s.dictionary,
		ScanRoot:   s.root,
		EnvVar:     passwd.DefaultEnvVar,
		LookupEnv:  r.lookupEnv,
		TryEmpty:   s.tryEmpty,
	}
	if s.prompt {
		pwCfg.Prompt = r.prompt
	}
	passwords, err := passwd.Resolve(pwCfg)
	if ctx.Err() != nil {
		// for example, Ctrl-C at the password prompt
		logger.Warn("interrupted before any file was processed")
		return exitInterrupted
	}
	for _, err := range splitErrors(err) {
		logger.Warn("password source skipped", "error", err)
	}
	if len(passwords) == 0 {
		logger.Warn("no candidate passwords")
	} else {
		logger.Debug("candidate passwords", "count", len(passwords), "sources", passwords.Sources())
	}

	scanOpt := &scan.Options{
		SkipNames: []string{s.backup.DirName},
		Logger:    logger,
	}
	if s.backup.Root != "" {
		scanOpt.SkipPaths = []string{s.backup.Root}
	}
	files, err := scan.FindPDFs(s.root, scanOpt)
	if err != nil {
		fmt.Fprintf(r.stderr, "%s: error: %v\n", toolName, err)
		return exitConfig
	}
	if len(files) == 0 {
		logger.Info("no PDF files found", "path", s.root)
	}

	cfg := &unlock.Config{
		Decrypter: decrypt.New(logger),
		Backup:    s.backup,
		Jobs:      s.jobs,
		Logger:    logger,
	}
	summary := unlock.Run(ctx, files, passwords, cfg)

	if s.summary {
		err = writeSummary(r.stdout, summary)
		if err != nil {
			logger.Error("cannot write summary", "error", err)
		}
	}

	logger.Info("done", "files", summary.Total(), "unlocked", summary.Counts[unlock.Unlocked], "failed", summary.Failed())
	switch {
	case !summary.Complete():
		logger.Warn("interrupted", "pending", summary.Counts[unlock.Pending])
		return exitInterrupted
	case summary.Failed() > 0:
		return exitFailed
	default:
		return exitOK
	}
}

// splitErrors returns the errors combined by errors.Join.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
