// Package mailbox implements the core.MailSource port over a directory of
// .eml files. It stands in for a remote mailbox provider during local runs
// and tests; fetching from an actual provider is an external collaborator's
// job.
package mailbox

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/adapters/filter"
	"github.com/mailsift/mailsift/internal/core"
)

// DirSource pages through the .eml files of a directory in name order.
type DirSource struct {
	dir      string
	pageSize int
	logger   *zap.Logger
}

// NewDirSource creates a source over dir returning at most pageSize records
// per Fetch.
func NewDirSource(dir string, pageSize int, logger *zap.Logger) *DirSource {
	if pageSize < 1 {
		pageSize = 10
	}
	return &DirSource{dir: dir, pageSize: pageSize, logger: logger}
}

// Fetch returns one page of records plus the token for the next page; the
// token is empty on the last page. An unreadable file yields a record with an
// empty body so the validator can report it at the right position instead of
// the whole page failing.
func (s *DirSource) Fetch(ctx context.Context, pageToken string) ([]*core.RawEmail, string, error) {
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid page token %q", pageToken)
		}
		start = n
	}

	names, err := s.listMessages()
	if err != nil {
		return nil, "", err
	}
	if start >= len(names) {
		return nil, "", nil
	}

	end := start + s.pageSize
	if end > len(names) {
		end = len(names)
	}

	records := make([]*core.RawEmail, 0, end-start)
	for _, name := range names[start:end] {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		records = append(records, s.readMessage(filepath.Join(s.dir, name)))
	}

	nextToken := ""
	if end < len(names) {
		nextToken = strconv.Itoa(end)
	}
	return records, nextToken, nil
}

func (s *DirSource) listMessages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".eml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirSource) readMessage(path string) *core.RawEmail {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("failed to open message file", zap.String("path", path), zap.Error(err))
		return &core.RawEmail{}
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		s.logger.Warn("failed to parse message file", zap.String("path", path), zap.Error(err))
		return &core.RawEmail{}
	}

	body, err := filter.ExtractText(msg)
	if err != nil {
		s.logger.Warn("failed to extract message text", zap.String("path", path), zap.Error(err))
		body = ""
	}

	received := time.Time{}
	if date, err := msg.Header.Date(); err == nil {
		received = date
	}

	return &core.RawEmail{
		Subject:    msg.Header.Get("Subject"),
		Sender:     msg.Header.Get("From"),
		Body:       body,
		ReceivedAt: received,
		Headers:    map[string][]string(msg.Header),
	}
}
