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

// Package decrypt tries a single candidate password on a PDF file.
//
// The PDF standard security handler is implemented by pdfcpu.  An [Adapter]
// never modifies the file it is given; on success the decrypted file is
// returned in memory.
package decrypt

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpulog "github.com/pdfcpu/pdfcpu/pkg/log"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/xdg-go/stringprep"

	"seehuhn.de/go/pdfunlock/passwd"
)

// Outcome is the result of trying one password on one file.
type Outcome int

// These are the possible outcomes of [Adapter.Attempt].
const (
	Success Outcome = iota + 1
	WrongPassword
	NotEncrypted
	IOError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case WrongPassword:
		return "wrong-password"
	case NotEncrypted:
		return "not-encrypted"
	case IOError:
		return "io-error"
	default:
		return "decrypt.Outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Terminal reports whether no further passwords should be tried after this
// outcome.
func (o Outcome) Terminal() bool {
	return o != WrongPassword
}

// Result describes the outcome of an attempt.
type Result struct {
	Outcome Outcome

	// Content is the decrypted PDF file.  This is only set if Outcome is
	// Success.
	Content []byte

	// Original holds the encrypted file, as it was read from disk.  This is
	// only set if Outcome is Success.
	Original []byte

	// Err is the reason why the file could not be read.  This is only set
	// if Outcome is IOError.
	Err error
}

// Adapter tries passwords on PDF files.
// An Adapter can be used concurrently from several goroutines.
type Adapter struct {
	logger *slog.Logger
}

var setupOnce sync.Once

// Setup switches off the pdfcpu configuration directory and the pdfcpu
// loggers.  It is safe to call Setup more than once.
func Setup() {
	setupOnce.Do(func() {
		api.DisableConfigDir()
		pdfcpulog.DisableLoggers()
	})
}

// New returns a new Adapter.  If logger is nil, nothing is logged.
func New(logger *slog.Logger) *Adapter {
	Setup()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// Attempt tries to decrypt the file with the given password.
//
// If the file can be opened without a password, NotEncrypted is returned
// regardless of pw.  Files which cannot be read or parsed give IOError.
func (a *Adapter) Attempt(fname string, pw passwd.Password) *Result {
	res := attempt(fname, pw)
	if res.Outcome == IOError {
		a.logger.Debug("attempt", "file", fname, "outcome", res.Outcome, "error", res.Err)
	} else {
		a.logger.Debug("attempt", "file", fname, "outcome", res.Outcome)
	}
	return res
}

func attempt(fname string, pw passwd.Password) *Result {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return &Result{Outcome: IOError, Err: err}
	}

	encrypted, err := isEncrypted(raw)
	if err != nil {
		return &Result{Outcome: IOError, Err: err}
	}
	if !encrypted {
		return &Result{Outcome: NotEncrypted}
	}

	for _, text := range variants(pw.Reveal()) {
		out, err := decryptBytes(raw, text)
		if err == nil {
			return &Result{Outcome: Success, Content: out, Original: raw}
		}
		if !errors.Is(err, pdfcpu.ErrWrongPassword) {
			return &Result{Outcome: IOError, Err: err}
		}
	}
	return &Result{Outcome: WrongPassword}
}

// isEncrypted checks whether the file requires a password to be opened.
// Files which only have an owner password are not considered encrypted.
func isEncrypted(raw []byte) (bool, error) {
	conf := model.NewDefaultConfiguration()
	_, err := api.ReadContext(bytes.NewReader(raw), conf)
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	return false, nil
}

func decryptBytes(raw []byte, text string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = text
	conf.OwnerPW = text

	buf := &bytes.Buffer{}
	err := api.Decrypt(bytes.NewReader(raw), buf, conf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// variants returns the password, followed by its SASLprep form if this
// differs.  AES-256 files expect the SASLprep form.
func variants(text string) []string {
	res := []string{text}
	prepped, err := stringprep.SASLprep.Prepare(text)
	if err == nil && prepped != text {
		res = append(res, prepped)
	}
	return res
}
