package filter

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/mailsift/mailsift/internal/textproc"
)

// ExtractText pulls the text content out of a parsed message. Multipart
// messages contribute their text/plain and text/html parts; transfer
// encodings and charsets are decoded best-effort, and bytes that survive no
// decoding are dropped rather than failing the message.
func ExtractText(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return decodePart(body, contentType, msg.Header.Get("Content-Transfer-Encoding")), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return textproc.SanitizeUTF8(string(body)), nil
	}

	var text bytes.Buffer
	mr := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed multipart bodies keep whatever was readable.
			break
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		if !strings.Contains(partType, "text/plain") && !strings.Contains(partType, "text/html") {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			continue
		}
		text.WriteString(decodePart(data, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding")))
		text.WriteString("\n")
	}

	return text.String(), nil
}

// decodePart reverses the transfer encoding and converts the declared
// charset to UTF-8. Every step is best-effort: a failed decode falls back to
// the raw bytes with undecodable sequences stripped.
func decodePart(data []byte, contentType, transferEncoding string) string {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		if decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(data))); err == nil {
			data = decoded
		}
	case "base64":
		if decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, bytes.NewReader(data))); err == nil {
			data = decoded
		}
	}

	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
			if reader, err := charsetReader(charset, bytes.NewReader(data)); err == nil {
				if converted, err := io.ReadAll(reader); err == nil {
					data = converted
				}
			}
		}
	}

	return textproc.SanitizeUTF8(string(data))
}

// charsetReader resolves a MIME charset label to a decoding reader. Unknown
// labels pass the input through untouched.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.MIME.Encoding(label)
	if err != nil || enc == nil {
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value.
func decodeEncodedHeader(value string) (string, error) {
	dec := &mime.WordDecoder{CharsetReader: charsetReader}
	return dec.DecodeHeader(value)
}
