package core

import (
	"context"
)

// Engine turns raw message text into a spam verdict. Implementations must be
// safe for concurrent use.
type Engine interface {
	// Classify returns the predicted label and the estimated probability of
	// that label, in [0,1].
	Classify(ctx context.Context, text string) (Label, float64, error)

	// Name identifies the engine in results and headers.
	Name() string
}

// RecordValidator checks inputs against size and shape constraints before
// they enter the pipeline. Implementations must be pure: no logging, no
// mutation of the input.
type RecordValidator interface {
	Text(text string) ValidationOutcome
	EmailRecord(r *RawEmail) ValidationOutcome
	Batch(rs []*RawEmail) []ValidationOutcome
}

// VerdictCache stores per-sender verdicts with expiry.
type VerdictCache interface {
	Get(ctx context.Context, sender string) (*Verdict, bool)
	Set(ctx context.Context, v *Verdict) error
	Delete(ctx context.Context, sender string) error
	Cleanup(ctx context.Context) error
}

// MailSource supplies pages of raw emails plus a continuation token. The
// remote mailbox collaborator (IMAP, Gmail, ...) lives behind this interface;
// the core only consumes it.
type MailSource interface {
	Fetch(ctx context.Context, pageToken string) ([]*RawEmail, string, error)
}

// MailFilter is a long-running presentation front-end such as the SMTP
// content filter.
type MailFilter interface {
	Start() error
	Stop() error
}
