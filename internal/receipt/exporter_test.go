package receipt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/order-dashboard/internal/model"
)

type failingSink struct{ err error }

func (failingSink) Name() string { return "broken" }

func (f failingSink) Save(context.Context, string, []byte, model.Order) (string, error) {
	return "", f.err
}

type memRecorder struct {
	records []model.ExportRecord
}

func (m *memRecorder) RecordExport(_ context.Context, rec model.ExportRecord) error {
	m.records = append(m.records, rec)
	return nil
}

type sinkEvents struct {
	names []string
	errs  []error
}

func (s *sinkEvents) ReceiptSaved(sink string, err error) {
	s.names = append(s.names, sink)
	s.errs = append(s.errs, err)
}

func TestExportWritesFileAndRecords(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	obs := &sinkEvents{}
	e := NewExporter(testBusiness(), rec, obs, DirSink{Dir: dir})

	res, err := e.Export(context.Background(), fullOrder())
	require.NoError(t, err)

	path := filepath.Join(dir, "customer_order_token_41_Priya.pdf")
	assert.Equal(t, "customer_order_token_41_Priya.pdf", res.FileName)
	assert.Equal(t, []string{path}, res.Locations)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, len(data), res.Size)

	require.Len(t, rec.records, 1)
	assert.Equal(t, "o1", rec.records[0].OrderID)
	assert.Equal(t, 41, rec.records[0].TokenNumber)
	assert.NotEmpty(t, rec.records[0].ID)

	assert.Equal(t, []string{"file"}, obs.names)
	assert.Nil(t, obs.errs[0])
}

func TestExportOverwritesPreviousReceipt(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(testBusiness(), nil, nil, DirSink{Dir: dir})

	_, err := e.Export(context.Background(), fullOrder())
	require.NoError(t, err)
	_, err = e.Export(context.Background(), fullOrder())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportPartialFailure(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	boom := errors.New("bucket unreachable")
	e := NewExporter(testBusiness(), rec, nil, DirSink{Dir: dir}, failingSink{err: boom})

	res, err := e.Export(context.Background(), fullOrder())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, res.Locations, 1)
	assert.Len(t, rec.records, 1)
}

func TestExportAllSinksFail(t *testing.T) {
	rec := &memRecorder{}
	e := NewExporter(testBusiness(), rec, nil, failingSink{err: errors.New("nope")})

	_, err := e.Export(context.Background(), fullOrder())
	require.Error(t, err)
	assert.Empty(t, rec.records)
}

func TestExportWithoutSinks(t *testing.T) {
	e := NewExporter(testBusiness(), nil, nil)
	_, err := e.Export(context.Background(), fullOrder())
	assert.Error(t, err)
	assert.Empty(t, e.Sinks())
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkUploads(t *testing.T) {
	put := &fakePutter{}
	sink := NewS3Sink(put, "shop-archive", "receipts/")

	loc, err := sink.Save(context.Background(), "r.pdf", []byte("%PDF-1.3"), fullOrder())
	require.NoError(t, err)
	assert.Equal(t, "s3://shop-archive/receipts/r.pdf", loc)
	assert.Equal(t, "shop-archive", *put.in.Bucket)
	assert.Equal(t, "receipts/r.pdf", *put.in.Key)
	assert.Equal(t, "application/pdf", *put.in.ContentType)
	assert.Equal(t, "41", put.in.Metadata["token-number"])
	assert.Equal(t, []byte("%PDF-1.3"), put.body)
}

func TestS3SinkError(t *testing.T) {
	sink := NewS3Sink(&fakePutter{err: errors.New("denied")}, "b", "")
	_, err := sink.Save(context.Background(), "r.pdf", nil, fullOrder())
	assert.ErrorContains(t, err, "denied")
}

type fakeAppender struct {
	mailbox string
	msg     []byte
}

func (f *fakeAppender) Append(_ context.Context, mailbox string, msg []byte, _ time.Time) error {
	f.mailbox = mailbox
	f.msg = msg
	return nil
}

func TestDraftSinkComposesMessage(t *testing.T) {
	app := &fakeAppender{}
	sink := NewDraftSink(app, model.DraftsConfig{
		Host:     "imap.example.com",
		Username: "shop@example.com",
		From:     "shop@example.com",
	}, "MAHITHRAA SRI CRACKERS")

	loc, err := sink.Save(context.Background(), "customer_order_token_41_Priya.pdf", []byte("%PDF-1.3 test"), fullOrder())
	require.NoError(t, err)
	assert.Equal(t, "imap://shop@example.com@imap.example.com/Drafts", loc)
	assert.Equal(t, "Drafts", app.mailbox)

	mr, err := mail.CreateReader(bytes.NewReader(app.msg))
	require.NoError(t, err)
	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Your order receipt - Token #41", subject)

	var text string
	var attachment []byte
	var filename string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			text = string(body)
		case *mail.AttachmentHeader:
			filename, _ = h.Filename()
			attachment = body
		}
	}
	assert.Contains(t, text, "Dear Priya")
	assert.Contains(t, text, "Rs.450.00")
	assert.Equal(t, "customer_order_token_41_Priya.pdf", filename)
	assert.Equal(t, []byte("%PDF-1.3 test"), attachment)
}
