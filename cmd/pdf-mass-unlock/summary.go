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

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"seehuhn.de/go/pdfunlock/unlock"
)

// statusLabels gives the row labels of the summary table.
var statusLabels = map[unlock.Status]string{
	unlock.Unlocked:        "Unlocked",
	unlock.AlreadyUnlocked: "Already unlocked",
	unlock.Failed:          "Failed",
	unlock.SkippedDryRun:   "Skipped (dry run)",
	unlock.Pending:         "Pending",
}

// writeSummary prints a table with the number of files in each state,
// followed by the list of files which could not be unlocked.  All rows are
// printed, even if the count is zero.
func writeSummary(w io.Writer, s *unlock.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Status\tFiles")
	fmt.Fprintf(tw, "Processed\t%d\n", s.Processed())
	for _, status := range unlock.AllStatus {
		fmt.Fprintf(tw, "%s\t%d\n", statusLabels[status], s.Counts[status])
	}
	err := tw.Flush()
	if err != nil {
		return err
	}

	for _, t := range s.Targets {
		if t.Status != unlock.Failed {
			continue
		}
		_, err = fmt.Fprintf(w, "failed: %s (%s)\n", t.Path, t.Reason)
		if err != nil {
			return err
		}
	}
	return nil
}
