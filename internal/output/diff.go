package output

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffResult compares two rendered snapshots line by line.
type DiffResult struct {
	From       string   `json:"from" yaml:"from"`
	To         string   `json:"to" yaml:"to"`
	Added      int      `json:"added" yaml:"added"`
	Removed    int      `json:"removed" yaml:"removed"`
	Similarity float64  `json:"similarity" yaml:"similarity"`
	Lines      []string `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// Changed reports whether the snapshots differ.
func (d *DiffResult) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}

// ComputeDiff diffs two texts by line. Lines holds only changed lines,
// prefixed with "+ " or "- ".
func ComputeDiff(fromName, from, toName, to string) *DiffResult {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	res := &DiffResult{From: fromName, To: toName}
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range splitLines(d.Text) {
			res.Lines = append(res.Lines, prefix+line)
			if d.Type == diffmatchpatch.DiffInsert {
				res.Added++
			} else {
				res.Removed++
			}
		}
	}

	dist := dmp.DiffLevenshtein(dmp.DiffMain(from, to, false))
	maxLen := len(from)
	if len(to) > maxLen {
		maxLen = len(to)
	}
	res.Similarity = 1
	if maxLen > 0 {
		res.Similarity = 1 - float64(dist)/float64(maxLen)
	}
	return res
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
