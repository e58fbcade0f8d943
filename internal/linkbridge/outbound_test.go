package linkbridge_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/linkbridge"
)

type fakePMSSource struct {
	attachments []linkbridge.Attachment
	bytes       map[int][]byte
	fetchErr    map[int]error
}

func (f *fakePMSSource) ListAttachments(_ context.Context, _, _ int) ([]linkbridge.Attachment, error) {
	return f.attachments, nil
}

func (f *fakePMSSource) FetchAttachmentBytes(_ context.Context, _, _, attachmentID int) ([]byte, error) {
	if err, ok := f.fetchErr[attachmentID]; ok {
		return nil, err
	}
	return f.bytes[attachmentID], nil
}

type fakeWITSSink struct {
	mu        sync.Mutex
	uploaded  []string
	hyperlinks []string
	uploadErr map[string]error
}

func (f *fakeWITSSink) UploadAttachmentFile(_ context.Context, _ int, name, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.uploadErr[name]; ok {
		return err
	}
	f.uploaded = append(f.uploaded, name)
	return nil
}

func (f *fakeWITSSink) AddHyperlink(_ context.Context, _ int, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hyperlinks = append(f.hyperlinks, url)
	return nil
}

func TestOutboundTransfersFilesAndURLs(t *testing.T) {
	pms := &fakePMSSource{
		attachments: []linkbridge.Attachment{
			{ID: 2, Name: "b.txt"},
			{ID: 1, Name: "a.txt"},
			{ID: 3, IsURL: true, URL: "https://example.com"},
		},
		bytes: map[int][]byte{1: []byte("a"), 2: []byte("b")},
	}
	wits := &fakeWITSSink{uploadErr: map[string]error{}}

	err := linkbridge.Outbound(context.Background(), slog.Default(), pms, wits, 1, 42, 99)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, wits.uploaded)
	assert.Equal(t, []string{"https://example.com"}, wits.hyperlinks)
}

func TestOutboundUploadFailureDoesNotAbortOthers(t *testing.T) {
	pms := &fakePMSSource{
		attachments: []linkbridge.Attachment{
			{ID: 1, Name: "big.bin"},
			{ID: 2, Name: "small.txt"},
		},
		bytes: map[int][]byte{1: []byte("x"), 2: []byte("y")},
	}
	wits := &fakeWITSSink{uploadErr: map[string]error{"big.bin": errors.New("too large")}}

	err := linkbridge.Outbound(context.Background(), slog.Default(), pms, wits, 1, 42, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"small.txt"}, wits.uploaded)
}
