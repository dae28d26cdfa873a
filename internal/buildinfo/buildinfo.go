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

// Package buildinfo describes the version of the running binary.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

// Version returns a version string for a command line tool, e.g.
// "pdf-mass-unlock v0.3.0 (pdfcpu v0.9.1)".
func Version(toolName string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return toolName
	}
	return format(toolName, info)
}

func format(toolName string, info *debug.BuildInfo) string {
	b := &strings.Builder{}
	b.WriteString(toolName)

	version := info.Main.Version
	if version == "" || version == "(devel)" {
		version = revision(info)
	}
	if version != "" {
		b.WriteString(" " + version)
	}

	for _, dep := range info.Deps {
		if dep.Path == "github.com/pdfcpu/pdfcpu" {
			b.WriteString(" (pdfcpu " + dep.Version + ")")
			break
		}
	}
	return b.String()
}

// revision returns the abbreviated VCS revision, or the empty string if the
// binary was not built from a VCS checkout.
func revision(info *debug.BuildInfo) string {
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if dirty {
		rev += "+dirty"
	}
	return rev
}
