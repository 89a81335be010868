// Package validate checks texts and email records against size and shape
// constraints before they enter the classification pipeline. Validation is
// purely structural: it never looks at spam-relevant content and has no side
// effects.
package validate

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mailsift/mailsift/internal/core"
)

// Validation sentinels, matched with errors.Is by callers.
var (
	ErrTooShort           = errors.New("text is shorter than the configured minimum")
	ErrTooLong            = errors.New("text exceeds the configured maximum length")
	ErrEmptyOrWhitespace  = errors.New("text is empty or whitespace only")
	ErrInvalidType        = errors.New("input is not a usable email record")
	ErrMissingBody        = errors.New("email record has no body")
	ErrMalformedStructure = errors.New("email record exceeds the maximum raw size")
)

const (
	defaultMinLength  = 1
	defaultMaxLength  = 100000
	defaultMaxRawSize = 1000000
)

// Validator holds the configured limits. Lengths are counted in runes, the
// raw-size cap in bytes.
type Validator struct {
	minLength  int
	maxLength  int
	maxRawSize int
}

// New creates a validator; non-positive limits fall back to defaults.
func New(minLength, maxLength, maxRawSize int) *Validator {
	if minLength <= 0 {
		minLength = defaultMinLength
	}
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}
	if maxRawSize <= 0 {
		maxRawSize = defaultMaxRawSize
	}
	return &Validator{minLength: minLength, maxLength: maxLength, maxRawSize: maxRawSize}
}

// Text checks a manual or extracted text against the configured length
// bounds. Text of exactly minLength or maxLength runes passes.
func (v *Validator) Text(text string) core.ValidationOutcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fail(core.KindEmptyOrWhitespace, ErrEmptyOrWhitespace)
	}
	if utf8.RuneCountInString(trimmed) < v.minLength {
		return fail(core.KindTooShort, ErrTooShort)
	}
	if utf8.RuneCountInString(text) > v.maxLength {
		return fail(core.KindTooLong, ErrTooLong)
	}
	return core.ValidationOutcome{OK: true}
}

// EmailRecord checks the structural shape of a raw email record.
func (v *Validator) EmailRecord(r *core.RawEmail) core.ValidationOutcome {
	if r == nil {
		return fail(core.KindInvalidType, ErrInvalidType)
	}
	if strings.TrimSpace(r.Body) == "" {
		return fail(core.KindMissingBody, ErrMissingBody)
	}
	if len(r.Body) > v.maxRawSize {
		return fail(core.KindMalformedStructure, ErrMalformedStructure)
	}
	return core.ValidationOutcome{OK: true}
}

// Batch validates every record and returns outcomes position-matched to the
// input so callers can correlate failures.
func (v *Validator) Batch(rs []*core.RawEmail) []core.ValidationOutcome {
	outcomes := make([]core.ValidationOutcome, len(rs))
	for i, r := range rs {
		outcomes[i] = v.EmailRecord(r)
	}
	return outcomes
}

func fail(kind core.ValidationKind, err error) core.ValidationOutcome {
	return core.ValidationOutcome{Reason: kind, Err: err}
}
