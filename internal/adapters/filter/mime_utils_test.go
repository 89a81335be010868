package filter

import (
	"net/mail"
	"strings"
	"testing"
)

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestExtractText_PlainBody(t *testing.T) {
	msg := parseMessage(t, "From: a@example.com\r\n"+
		"Subject: hi\r\n"+
		"\r\n"+
		"just a plain body\r\n")

	got, err := ExtractText(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "just a plain body") {
		t.Errorf("got %q", got)
	}
}

func TestExtractText_QuotedPrintable(t *testing.T) {
	msg := parseMessage(t, "From: a@example.com\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"Content-Transfer-Encoding: quoted-printable\r\n"+
		"\r\n"+
		"gagner de l=27argent facilement\r\n")

	got, err := ExtractText(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "l'argent") {
		t.Errorf("quoted-printable not decoded: %q", got)
	}
}

func TestExtractText_Base64(t *testing.T) {
	// "WIN FREE CASH" in base64.
	msg := parseMessage(t, "From: a@example.com\r\n"+
		"Content-Type: text/plain\r\n"+
		"Content-Transfer-Encoding: base64\r\n"+
		"\r\n"+
		"V0lOIEZSRUUgQ0FTSA==\r\n")

	got, err := ExtractText(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "WIN FREE CASH") {
		t.Errorf("base64 not decoded: %q", got)
	}
}

func TestExtractText_MultipartPicksTextParts(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: multipart/alternative; boundary=\"BOUNDARY\"\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		"BINARYBLOB\r\n" +
		"--BOUNDARY--\r\n"

	got, err := ExtractText(parseMessage(t, raw))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "plain version") {
		t.Errorf("text/plain part missing: %q", got)
	}
	if !strings.Contains(got, "html version") {
		t.Errorf("text/html part missing: %q", got)
	}
	if strings.Contains(got, "BINARYBLOB") {
		t.Errorf("non-text part leaked into output: %q", got)
	}
}

func TestExtractText_Latin1Charset(t *testing.T) {
	// 0xE9 is é in ISO-8859-1.
	msg := parseMessage(t, "From: a@example.com\r\n"+
		"Content-Type: text/plain; charset=iso-8859-1\r\n"+
		"\r\n"+
		"caf\xe9 gratuit\r\n")

	got, err := ExtractText(msg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "café gratuit") {
		t.Errorf("charset not converted: %q", got)
	}
}

func TestDecodeEncodedHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain header untouched",
			in:   "Ordinary subject",
			want: "Ordinary subject",
		},
		{
			name: "q-encoded utf-8",
			in:   "=?UTF-8?Q?caf=C3=A9_offert?=",
			want: "café offert",
		},
		{
			name: "b-encoded utf-8",
			in:   "=?UTF-8?B?V0lOIEZSRUU=?=",
			want: "WIN FREE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEncodedHeader(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
