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

// Package profile writes CPU and heap profiles for a single run of a
// command.
package profile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Session is a running profile.  The zero Session does nothing.
type Session struct {
	cpuFile *os.File
	memPath string
}

// Start begins CPU profiling if cpuPath is non-empty.  If memPath is
// non-empty, a heap profile is written there by [Session.Stop].
func Start(cpuPath, memPath string) (*Session, error) {
	s := &Session{memPath: memPath}
	if cpuPath == "" {
		return s, nil
	}

	fd, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create CPU profile: %w", err)
	}
	err = pprof.StartCPUProfile(fd)
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("cannot start CPU profile: %w", err)
	}
	s.cpuFile = fd
	return s, nil
}

// Stop ends CPU profiling and writes the heap profile.
func (s *Session) Stop() error {
	var errs []error
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.memPath != "" {
		errs = append(errs, writeHeap(s.memPath))
		s.memPath = ""
	}
	return errors.Join(errs...)
}

func writeHeap(fname string) error {
	fd, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("cannot create memory profile: %w", err)
	}
	runtime.GC()
	allocs := pprof.Lookup("allocs")
	if allocs == nil {
		fd.Close()
		return errors.New("allocs profile not available")
	}
	err = allocs.WriteTo(fd, 0)
	err2 := fd.Close()
	if err != nil {
		return fmt.Errorf("cannot write memory profile: %w", err)
	}
	return err2
}
