package core

import (
	"time"
)

// Label is a classification verdict.
type Label string

const (
	LabelSpam    Label = "spam"
	LabelNotSpam Label = "not_spam"
)

// RawEmail is one unparsed message as handed over by a mailbox source or the
// SMTP front-end. It is immutable once received; the classifier service owns
// it only for the duration of a single classification pass.
type RawEmail struct {
	Subject    string
	Sender     string
	Body       string
	ReceivedAt time.Time
	Headers    map[string][]string
}

// ClassificationResult is the outcome of classifying a single input. It is
// created once per item and never mutated afterwards.
type ClassificationResult struct {
	Label        Label
	Confidence   float64
	RawText      string
	DisplayText  string
	Links        []string
	Engine       string
	ClassifiedAt time.Time
}

// ItemResult is one position of a batch: either a result or an error, never
// both. Batch isolation is carried by the type, not by panic/recover.
type ItemResult struct {
	Result *ClassificationResult
	Err    error
}

// Verdict is the cached outcome for a sender.
type Verdict struct {
	Sender     string
	Label      Label
	Confidence float64
	LastSeen   time.Time
	ExpiresAt  time.Time
}

// ValidationKind identifies why an input was rejected before classification.
type ValidationKind string

const (
	KindNone               ValidationKind = ""
	KindTooShort           ValidationKind = "too_short"
	KindTooLong            ValidationKind = "too_long"
	KindEmptyOrWhitespace  ValidationKind = "empty_or_whitespace"
	KindInvalidType        ValidationKind = "invalid_type"
	KindMissingBody        ValidationKind = "missing_body"
	KindMalformedStructure ValidationKind = "malformed_structure"
)

// ValidationOutcome is attached per item before it enters the pipeline.
type ValidationOutcome struct {
	OK     bool
	Reason ValidationKind
	Err    error
}
