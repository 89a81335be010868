package openai

import (
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantSpam bool
		wantConf float64
		wantErr  bool
	}{
		{
			name:     "bare json",
			in:       `{"is_spam": true, "confidence": 0.95}`,
			wantSpam: true,
			wantConf: 0.95,
		},
		{
			name:     "json wrapped in prose",
			in:       "Here is my analysis:\n```json\n{\"is_spam\": false, \"confidence\": 0.8}\n```\nDone.",
			wantSpam: false,
			wantConf: 0.8,
		},
		{
			name:    "no json at all",
			in:      "I think this is spam.",
			wantErr: true,
		},
		{
			name:    "malformed object",
			in:      `{"is_spam": maybe}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVerdict(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if v.IsSpam != tt.wantSpam || v.Confidence != tt.wantConf {
				t.Errorf("got (%v, %v), want (%v, %v)", v.IsSpam, v.Confidence, tt.wantSpam, tt.wantConf)
			}
		})
	}
}

func TestName(t *testing.T) {
	e := &Engine{modelName: "gpt-4o-mini"}
	if got := e.Name(); got != "openai:gpt-4o-mini" {
		t.Errorf("Name() = %q", got)
	}
}
