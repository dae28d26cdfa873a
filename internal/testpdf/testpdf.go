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

// Package testpdf generates small PDF files for use in tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"seehuhn.de/go/pdfunlock/decrypt"
)

// Plain returns a valid, unencrypted one-page PDF file.
// The title is stored in the document information dictionary.
func Plain(title string) []byte {
	content := "0 0 1 rg 10 10 100 100 re f"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> /Contents 5 0 R >>",
		"<< /Title (" + title + ") /Producer (testpdf) >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, pos := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", pos)
	}
	id := "5c2d8fe0a1b34e6f9a7d0c41e2b6f813"
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R /ID [<%s> <%s>] >>\n",
		len(objects)+1, id, id)
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// Encrypt protects a PDF file with the given password, which is used both
// as the user and the owner password.
func Encrypt(t testing.TB, data []byte, password string) []byte {
	t.Helper()
	decrypt.Setup()

	conf := model.NewAESConfiguration(password, password, 128)
	out := &bytes.Buffer{}
	err := api.Encrypt(bytes.NewReader(data), out, conf)
	if err != nil {
		t.Fatal(err)
	}
	return out.Bytes()
}

// Encrypted returns a one-page PDF file protected by the given password.
func Encrypted(t testing.TB, title, password string) []byte {
	t.Helper()
	return Encrypt(t, Plain(title), password)
}

// Corrupt returns data which has the extension but not the structure of a
// PDF file.
func Corrupt() []byte {
	return []byte("%PDF-1.7\nthis is not really a PDF file\n%%EOF\n")
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	fname := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(fname), 0o755)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(fname, data, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	return fname
}

// ReadFile returns the contents of a file, failing the test on error.
func ReadFile(t testing.TB, fname string) []byte {
	t.Helper()
	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
