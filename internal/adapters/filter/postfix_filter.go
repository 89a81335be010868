// Package filter contains presentation front-ends that feed mail into the
// classifier service. The Postfix filter speaks SMTP: mail comes in on the
// content-filter port, gets classified, and is relayed back to Postfix with
// verdict headers attached.
package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/core"
)

const defaultSubjectPrefix = "[**SPAM**] "

// PostfixFilter implements core.MailFilter as a Postfix content filter.
type PostfixFilter struct {
	service        *core.ClassifierService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockSpam      bool
	spamHeader     string
	scoreHeader    string
	engineHeader   string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates the filter. It does not bind the listen address
// until Start.
func NewPostfixFilter(
	service *core.ClassifierService,
	logger *zap.Logger,
	listenAddr string,
	blockSpam bool,
	spamHeader string,
	scoreHeader string,
	engineHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = defaultSubjectPrefix
	}
	return &PostfixFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockSpam:      blockSpam,
		spamHeader:     spamHeader,
		scoreHeader:    scoreHeader,
		engineHeader:   engineHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start begins accepting SMTP connections in the background.
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the SMTP server down.
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// relayToPostfix hands the annotated message back to Postfix.
func (f *PostfixFilter) relayToPostfix(sender string, recipients []string, emailData []byte) error {
	addr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO rejected", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		accepted = true
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT failed", zap.Error(err))
	}
	return nil
}

type smtpBackend struct {
	filter *PostfixFilter
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the incoming message and relays it onward with verdict
// headers. A classification failure never loses mail: the message passes
// through with an error header instead.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("failed to parse message", zap.Error(err))
		return err
	}

	body, err := ExtractText(msg)
	if err != nil {
		s.filter.logger.Error("failed to extract text content", zap.Error(err))
		return err
	}

	record := &core.RawEmail{
		Sender:     s.sender,
		Subject:    msg.Header.Get("Subject"),
		Body:       body,
		ReceivedAt: time.Now(),
		Headers:    map[string][]string(msg.Header),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, classifyErr := s.filter.service.ClassifyOne(ctx, record)
	if classifyErr != nil {
		s.filter.logger.Error("classification failed, passing message through",
			zap.String("sender", s.sender),
			zap.Error(classifyErr))
	}

	isSpam := classifyErr == nil && result.Label == core.LabelSpam
	if isSpam && s.filter.blockSpam {
		s.filter.logger.Info("rejecting spam",
			zap.String("sender", s.sender),
			zap.Float64("confidence", result.Confidence))
		return fmt.Errorf("550 Rejected as spam (confidence: %.2f)", result.Confidence)
	}

	annotated := s.annotate(msg, rawData, result, classifyErr, isSpam)

	if s.filter.postfixEnabled {
		if err := s.filter.relayToPostfix(s.sender, s.recipients, annotated); err != nil {
			s.filter.logger.Error("failed to relay to Postfix",
				zap.String("sender", s.sender),
				zap.Error(err))
			return err
		}
	} else {
		s.filter.logger.Warn("postfix relay disabled, message not forwarded")
	}

	if classifyErr == nil {
		s.filter.logger.Info("message processed",
			zap.String("sender", s.sender),
			zap.Bool("is_spam", isSpam),
			zap.Float64("confidence", result.Confidence),
			zap.String("engine", result.Engine))
	}
	return nil
}

// annotate rebuilds the message with verdict headers prepended and, when
// configured, the subject tagged. The original body bytes are preserved so
// MIME parts and attachments survive untouched.
func (s *smtpSession) annotate(msg *mail.Message, rawData []byte, result *core.ClassificationResult, classifyErr error, isSpam bool) []byte {
	var out bytes.Buffer

	if classifyErr != nil {
		fmt.Fprintf(&out, "X-Spam-Analysis-Error: %s\r\n", classifyErr.Error())
	} else {
		fmt.Fprintf(&out, "%s: %t\r\n", s.filter.spamHeader, isSpam)
		fmt.Fprintf(&out, "%s: %.4f\r\n", s.filter.scoreHeader, result.Confidence)
		fmt.Fprintf(&out, "%s: %s\r\n", s.filter.engineHeader, result.Engine)
	}

	tagSubject := isSpam && s.filter.modifySubject && s.filter.subjectPrefix != ""
	if tagSubject {
		subject := msg.Header.Get("Subject")
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			subject = decoded
		}
		if !strings.HasPrefix(subject, s.filter.subjectPrefix) {
			fmt.Fprintf(&out, "Subject: %s%s\r\n", s.filter.subjectPrefix, subject)
		} else {
			tagSubject = false
		}
	}
	for key, values := range msg.Header {
		if tagSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}
	out.WriteString("\r\n")

	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		out.Write(rawData[idx+4:])
	} else if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		out.Write(rawData[idx+2:])
	} else if body, err := io.ReadAll(msg.Body); err == nil {
		out.Write(body)
	}

	return out.Bytes()
}

func (s *smtpSession) Logout() error {
	return nil
}
