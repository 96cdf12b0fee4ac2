// Package number generates and normalizes permit numbers.
//
// A permit number has the form HTPL/<LOCATION>/<YYYY-YY>/<SEQ>, where
// <YYYY-YY> is the April to March fiscal year and <SEQ> is a counter
// that restarts at 1 for each location and fiscal year.
package number

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
)

// Prefix is the fixed organization prefix of every permit number.
const Prefix = "HTPL"

// maxAttempts bounds the insert retry loop when concurrent generators
// collide on the same sequence number.
const maxAttempts = 50

// ErrSequenceExhausted is returned when a fresh number could not be
// claimed within the retry budget. It is distinct from database errors
// so callers can surface a clear conflict response.
var ErrSequenceExhausted = errors.New("permit number sequence exhausted")

// Generator allocates permit numbers against the permits table.
type Generator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGenerator creates a permit number generator. A nil now falls back
// to time.Now.
func NewGenerator(db *gorm.DB, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{db: db, now: now}
}

// Normalize canonicalizes a location or permit number token: quotes,
// slashes, backslashes and all whitespace are stripped and the result
// is uppercased. Numbers arrive from spreadsheets and URL paths, so
// lookups always compare normalized forms.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '"', '\'', '/', '\\':
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}

	return strings.ToUpper(b.String())
}

// FiscalYear renders the April to March fiscal year containing t, for
// example "2025-26" for any date from April 2025 through March 2026.
func FiscalYear(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// Generate allocates the next permit number for the location and
// returns it together with the insert callback result. The caller
// supplies claim, which must insert a permit row carrying the candidate
// number inside its own transaction; a unique constraint violation on
// the number makes Generate rescan and retry with a fresh candidate.
func (g *Generator) Generate(ctx context.Context, location string, claim func(number string) error) (string, error) {
	loc := Normalize(location)
	fy := FiscalYear(g.now())
	base := Prefix + "/" + loc + "/" + fy + "/"

	for attempt := 0; attempt < maxAttempts; attempt++ {
		seq, err := g.nextSequence(ctx, base)
		if err != nil {
			return "", err
		}

		candidate := base + strconv.Itoa(seq)

		err = claim(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", err
		}
	}

	return "", ErrSequenceExhausted
}

// nextSequence scans existing numbers under base and returns the
// highest trailing sequence plus one. Gaps left by deleted permits are
// never reused.
func (g *Generator) nextSequence(ctx context.Context, base string) (int, error) {
	var numbers []string

	err := g.db.WithContext(ctx).Model(&models.Permit{}).
		Where("permit_number LIKE ?", base+"%").
		Pluck("permit_number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to scan permit numbers: %w", err)
	}

	maxSeq := 0
	for _, n := range numbers {
		tail := strings.TrimPrefix(n, base)
		seq, err := strconv.Atoi(tail)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return maxSeq + 1, nil
}

// Location extracts the normalized location segment of a permit number,
// or an empty string if the number does not have the expected shape.
func Location(permitNumber string) string {
	parts := strings.Split(permitNumber, "/")
	if len(parts) != 4 || parts[0] != Prefix {
		return ""
	}
	return parts[1]
}
