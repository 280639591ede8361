package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/order-dashboard/internal/model"
)

// Appender stores a raw message in a mailbox.
type Appender interface {
	Append(ctx context.Context, mailbox string, msg []byte, at time.Time) error
}

// IMAPAppender appends messages over IMAP.
type IMAPAppender struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewIMAPAppender creates an IMAP appender configuration.
func NewIMAPAppender(cfg model.DraftsConfig, password string) *IMAPAppender {
	return &IMAPAppender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: password,
		tls:      cfg.TLS,
	}
}

// connect dials and authenticates. The caller must log out.
func (a *IMAPAppender) connect() (*imapclient.Client, error) {
	addr := a.host + ":" + a.port

	var client *imapclient.Client
	var err error
	if a.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(a.username, a.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", a.username, err)
	}
	return client, nil
}

// Append uploads msg to mailbox flagged as a draft.
func (a *IMAPAppender) Append(_ context.Context, mailbox string, msg []byte, at time.Time) error {
	client, err := a.connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft},
		Time:  at,
	})
	if _, err := cmd.Write(msg); err != nil {
		cmd.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", mailbox, err)
	}
	return nil
}

// DraftSink leaves a ready-to-send email with the receipt attached in a
// mailbox, typically Drafts.
type DraftSink struct {
	appender Appender
	mailbox  string
	from     string
	business string
	location string
	now      func() time.Time
}

// NewDraftSink creates a draft sink. location is reported back as the
// export location, e.g. "imap://user@host/Drafts".
func NewDraftSink(appender Appender, cfg model.DraftsConfig, business string) *DraftSink {
	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "Drafts"
	}
	return &DraftSink{
		appender: appender,
		mailbox:  mailbox,
		from:     cfg.From,
		business: business,
		location: fmt.Sprintf("imap://%s@%s/%s", cfg.Username, cfg.Host, mailbox),
		now:      time.Now,
	}
}

func (*DraftSink) Name() string { return "drafts" }

// Save composes the draft and appends it.
func (s *DraftSink) Save(ctx context.Context, name string, data []byte, o model.Order) (string, error) {
	now := s.now()
	msg, err := s.compose(name, data, o, now)
	if err != nil {
		return "", err
	}
	if err := s.appender.Append(ctx, s.mailbox, msg, now); err != nil {
		return "", err
	}
	return s.location, nil
}

func (s *DraftSink) compose(name string, data []byte, o model.Order, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(fmt.Sprintf("Your order receipt - Token #%s", tokenText(o.TokenNumber)))
	if s.from != "" {
		h.SetAddressList("From", []*mail.Address{{Name: s.business, Address: s.from}})
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating message body: %w", err)
	}
	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	w, err := tw.CreatePart(th)
	if err != nil {
		return nil, fmt.Errorf("creating text part: %w", err)
	}
	fmt.Fprintf(w, "Dear %s,\r\n\r\nPlease find attached the receipt for your order #%s.\r\nTotal amount: %s\r\n\r\n%s\r\n",
		orNA(o.Customer), tokenText(o.TokenNumber), Money(o.TotalAmount), s.business)
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing text part: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing message body: %w", err)
	}

	var ah mail.AttachmentHeader
	ah.Set("Content-Type", "application/pdf")
	ah.SetFilename(name)
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return nil, fmt.Errorf("creating attachment: %w", err)
	}
	if _, err := io.Copy(aw, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("writing attachment: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("closing attachment: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}
