// Package studentcode formats, validates, and parses human-readable
// student enrollment codes of the form MP-{COURSE}{YY}.{BATCH}-{SEQ}.
package studentcode

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// InstitutePrefix is stripped from course codes before embedding them and
// leads every generated code.
const InstitutePrefix = "MP"

var (
	codePattern  = regexp.MustCompile(`^MP-[A-Z]+\d{2}\.\d+-\d{3}$`)
	partsPattern = regexp.MustCompile(`^(MP)-([A-Z]+)(\d{2})\.(\d+)-(\d{3})$`)
)

// Parts is the decomposition of a valid student code.
type Parts struct {
	Institute   string
	CourseCode  string // without the institute prefix
	Year        int    // full year (two-digit suffix + 2000)
	BatchNumber int
	Sequence    int
}

// Format builds a student code. courseCode may carry the institute prefix;
// it is stripped so codes read MP-ACC25.1-007 rather than MP-MPACC25.1-007.
func Format(courseCode string, year, batchNumber, sequence int) string {
	stripped := strings.TrimPrefix(strings.ToUpper(courseCode), InstitutePrefix)
	return fmt.Sprintf("%s-%s%02d.%d-%03d", InstitutePrefix, stripped, year%100, batchNumber, sequence)
}

// Prefix builds the shared leading portion of all codes in one
// course/year/batch group, suitable for a LIKE query.
func Prefix(courseCode string, year, batchNumber int) string {
	stripped := strings.TrimPrefix(strings.ToUpper(courseCode), InstitutePrefix)
	return fmt.Sprintf("%s-%s%02d.%d-", InstitutePrefix, stripped, year%100, batchNumber)
}

// Validate reports whether code matches the student code grammar.
func Validate(code string) bool {
	return codePattern.MatchString(code)
}

// Parse decomposes a student code, failing if it does not match the
// grammar.
func Parse(code string) (Parts, error) {
	m := partsPattern.FindStringSubmatch(code)
	if m == nil {
		return Parts{}, fmt.Errorf("invalid student code format: %q", code)
	}

	yy, _ := strconv.Atoi(m[3])
	batch, _ := strconv.Atoi(m[4])
	seq, _ := strconv.Atoi(m[5])

	return Parts{
		Institute:   m[1],
		CourseCode:  m[2],
		Year:        2000 + yy,
		BatchNumber: batch,
		Sequence:    seq,
	}, nil
}

// NextSequence returns the smallest positive integer absent from existing.
// Deleting a middle student frees its number for reuse, so numbering stays
// dense; downstream reporting depends on that.
func NextSequence(existing []int) int {
	if len(existing) == 0 {
		return 1
	}

	sorted := make([]int, len(existing))
	copy(sorted, existing)
	sort.Ints(sorted)

	next := 1
	for _, n := range sorted {
		if n < next {
			continue // ignore non-positive or duplicate entries
		}
		if n > next {
			break // found a gap
		}
		next++
	}
	return next
}

// SequencesFromCodes extracts the numeric suffixes of codes that parse
// cleanly, ignoring anything malformed.
func SequencesFromCodes(codes []string) []int {
	seqs := make([]int, 0, len(codes))
	for _, c := range codes {
		p, err := Parse(c)
		if err != nil {
			continue
		}
		seqs = append(seqs, p.Sequence)
	}
	return seqs
}
