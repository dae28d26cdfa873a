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

package unlock

// Summary collects the results of a run.
type Summary struct {
	Counts  map[Status]int
	Targets []*Target
}

// Summarize returns the summary for the given targets.
func Summarize(targets []*Target) *Summary {
	s := &Summary{}
	for _, t := range targets {
		s.Add(t)
	}
	return s
}

// Add records the result for one more file.
func (s *Summary) Add(t *Target) {
	if s.Counts == nil {
		s.Counts = make(map[Status]int)
	}
	s.Counts[t.Status]++
	s.Targets = append(s.Targets, t)
}

// Total returns the number of files in the summary.
func (s *Summary) Total() int {
	return len(s.Targets)
}

// Processed returns the number of files which reached a final state.
func (s *Summary) Processed() int {
	return len(s.Targets) - s.Counts[Pending]
}

// Failed returns the number of files which could not be unlocked.
func (s *Summary) Failed() int {
	return s.Counts[Failed]
}

// Complete reports whether every file reached a final state.
func (s *Summary) Complete() bool {
	return s.Counts[Pending] == 0
}
