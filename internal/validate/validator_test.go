package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/mailsift/mailsift/internal/core"
)

func TestText(t *testing.T) {
	v := New(5, 10, 0)

	tests := []struct {
		name    string
		in      string
		wantOK  bool
		kind    core.ValidationKind
		wantErr error
	}{
		{
			name:    "empty string",
			in:      "",
			kind:    core.KindEmptyOrWhitespace,
			wantErr: ErrEmptyOrWhitespace,
		},
		{
			name:    "whitespace only",
			in:      " \t\n ",
			kind:    core.KindEmptyOrWhitespace,
			wantErr: ErrEmptyOrWhitespace,
		},
		{
			name:    "one below minimum",
			in:      "abcd",
			kind:    core.KindTooShort,
			wantErr: ErrTooShort,
		},
		{
			name:   "exactly minimum passes",
			in:     "abcde",
			wantOK: true,
		},
		{
			name:   "exactly maximum passes",
			in:     strings.Repeat("a", 10),
			wantOK: true,
		},
		{
			name:    "one above maximum",
			in:      strings.Repeat("a", 11),
			kind:    core.KindTooLong,
			wantErr: ErrTooLong,
		},
		{
			name:   "length counted in runes not bytes",
			in:     strings.Repeat("é", 10),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := v.Text(tt.in)
			if out.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (err %v)", out.OK, tt.wantOK, out.Err)
			}
			if tt.wantOK {
				return
			}
			if out.Reason != tt.kind {
				t.Errorf("Reason = %q, want %q", out.Reason, tt.kind)
			}
			if !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", out.Err, tt.wantErr)
			}
		})
	}
}

func TestText_EmptyCheckedBeforeTooShort(t *testing.T) {
	// Whitespace shorter than the minimum must report the empty reason, not
	// the length reason.
	v := New(5, 100, 0)
	out := v.Text("  ")
	if out.Reason != core.KindEmptyOrWhitespace {
		t.Errorf("Reason = %q, want %q", out.Reason, core.KindEmptyOrWhitespace)
	}
}

func TestEmailRecord(t *testing.T) {
	v := New(1, 100000, 50)

	tests := []struct {
		name    string
		rec     *core.RawEmail
		wantOK  bool
		kind    core.ValidationKind
		wantErr error
	}{
		{
			name:    "nil record",
			rec:     nil,
			kind:    core.KindInvalidType,
			wantErr: ErrInvalidType,
		},
		{
			name:    "empty body",
			rec:     &core.RawEmail{Subject: "hi"},
			kind:    core.KindMissingBody,
			wantErr: ErrMissingBody,
		},
		{
			name:    "whitespace body",
			rec:     &core.RawEmail{Body: "   \n"},
			kind:    core.KindMissingBody,
			wantErr: ErrMissingBody,
		},
		{
			name:    "body over raw size cap",
			rec:     &core.RawEmail{Body: strings.Repeat("a", 51)},
			kind:    core.KindMalformedStructure,
			wantErr: ErrMalformedStructure,
		},
		{
			name:   "body at raw size cap passes",
			rec:    &core.RawEmail{Body: strings.Repeat("a", 50)},
			wantOK: true,
		},
		{
			name:   "normal record",
			rec:    &core.RawEmail{Subject: "offer", Body: "hello there"},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := v.EmailRecord(tt.rec)
			if out.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v (err %v)", out.OK, tt.wantOK, out.Err)
			}
			if tt.wantOK {
				return
			}
			if out.Reason != tt.kind {
				t.Errorf("Reason = %q, want %q", out.Reason, tt.kind)
			}
			if !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", out.Err, tt.wantErr)
			}
		})
	}
}

func TestBatch_PositionMatched(t *testing.T) {
	v := New(1, 100000, 0)
	records := []*core.RawEmail{
		{Body: "first"},
		nil,
		{Body: ""},
		{Body: "fourth"},
	}

	outcomes := v.Batch(records)
	if len(outcomes) != len(records) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(records))
	}
	if !outcomes[0].OK || !outcomes[3].OK {
		t.Errorf("valid records failed: %+v", outcomes)
	}
	if outcomes[1].Reason != core.KindInvalidType {
		t.Errorf("outcome[1].Reason = %q, want %q", outcomes[1].Reason, core.KindInvalidType)
	}
	if outcomes[2].Reason != core.KindMissingBody {
		t.Errorf("outcome[2].Reason = %q, want %q", outcomes[2].Reason, core.KindMissingBody)
	}
}
