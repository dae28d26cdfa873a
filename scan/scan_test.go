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

package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func makeTree(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		fname := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(fname), 0o755); err != nil {
			t.Fatal(err)
		}
		if name[len(name)-1] == '/' {
			continue
		}
		if err := os.WriteFile(fname, []byte("%PDF-1.7\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relative(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var res []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		res = append(res, filepath.ToSlash(rel))
	}
	return res
}

func TestFindPDFs(t *testing.T) {
	root := makeTree(t,
		"b.pdf",
		"A.PDF",
		"notes.txt",
		"sub/c.Pdf",
		"sub/deeper/d.pdf",
		"sub/pdf_with_password/c.Pdf",
		"pdf_with_password/b.pdf",
		"folder.pdf/",
		".b.pdf.1234.tmp",
		"pdf_with_password/x.pdf.partial",
	)

	got, err := FindPDFs(root, &Options{SkipNames: []string{"pdf_with_password"}})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A.PDF", "b.pdf", "sub/c.Pdf", "sub/deeper/d.pdf"}
	if d := cmp.Diff(want, relative(t, root, got)); d != "" {
		t.Errorf("wrong files (-want +got):\n%s", d)
	}
}

func TestFindPDFsSkipPaths(t *testing.T) {
	root := makeTree(t, "a.pdf", "backups/x/a.pdf", "other/backups/b.pdf")

	got, err := FindPDFs(root, &Options{SkipPaths: []string{filepath.Join(root, "backups")}})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.pdf", "other/backups/b.pdf"}
	if d := cmp.Diff(want, relative(t, root, got)); d != "" {
		t.Errorf("wrong files (-want +got):\n%s", d)
	}
}

func TestFindPDFsEmpty(t *testing.T) {
	root := makeTree(t, "readme.txt")
	got, err := FindPDFs(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("unexpected files %q", got)
	}
}

func TestFindPDFsMissingRoot(t *testing.T) {
	_, err := FindPDFs(filepath.Join(t.TempDir(), "missing"), nil)
	if err == nil {
		t.Error("missing root was not reported")
	}
}
