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

// Package passwd collects the candidate passwords which are tried when
// unlocking PDF files.
//
// Passwords are represented by the opaque [Password] type.  The password text
// can only be obtained by calling [Password.Reveal].  All other ways of
// turning a Password into text (fmt verbs, log/slog attributes) produce a
// placeholder which only names the source of the password.
package passwd

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
)

// Source describes where a candidate password came from.
type Source int

// These are the supported password sources, in order of decreasing priority.
const (
	SourceCLI Source = iota + 1
	SourcePrompt
	SourceDictionary
	SourceEnv
	SourceEmpty
)

func (s Source) String() string {
	switch s {
	case SourceCLI:
		return "cli"
	case SourcePrompt:
		return "prompt"
	case SourceDictionary:
		return "dictionary"
	case SourceEnv:
		return "env"
	case SourceEmpty:
		return "empty"
	default:
		return "passwd.Source(" + strconv.Itoa(int(s)) + ")"
	}
}

// Password is a candidate password together with its source.
// The zero value is not a valid password.
type Password struct {
	text   string
	source Source
}

// New returns a Password with the given text and source.
func New(text string, source Source) Password {
	return Password{text: text, source: source}
}

// Reveal returns the password text.
func (p Password) Reveal() string {
	return p.text
}

// Source returns where the password came from.
func (p Password) Source() Source {
	return p.source
}

// String returns a placeholder naming the password source.
// The password text is never included.
func (p Password) String() string {
	return "<" + p.source.String() + " password>"
}

// Format implements [fmt.Formatter], so that all formatting verbs,
// including %#v and %x, print the placeholder.
func (p Password) Format(f fmt.State, _ rune) {
	io.WriteString(f, p.String())
}

// LogValue implements [slog.LogValuer].
func (p Password) LogValue() slog.Value {
	return slog.StringValue(p.String())
}

// List is an ordered list of candidate passwords without duplicates.
type List []Password

// Sources returns the source of every password in the list, in order.
func (l List) Sources() []Source {
	res := make([]Source, len(l))
	for i, p := range l {
		res[i] = p.source
	}
	return res
}

// add appends p to the list, unless a password with the same text is
// already present.
func (l List) add(seen map[string]bool, p Password) List {
	if seen[p.text] {
		return l
	}
	seen[p.text] = true
	return append(l, p)
}
