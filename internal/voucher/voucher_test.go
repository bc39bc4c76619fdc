package voucher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/giftcards/internal/giftcards"
	"github.com/richxcame/giftcards/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCard() *giftcards.GiftCard {
	return &giftcards.GiftCard{
		ID:            uuid.New(),
		Code:          "a1b2c3d4",
		OriginalValue: decimal.NewFromInt(50),
		CurrentValue:  decimal.NewFromInt(20),
		Currency:      "EUR",
		Name:          "Grace",
		Note:          "Happy birthday",
	}
}

// ========================================
// PDF RENDERER TESTS
// ========================================

func TestPDFRenderer_Render(t *testing.T) {
	r := NewPDFRenderer(Config{Author: "Shop", SiteName: "shop.example", Language: "de"})
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	data, err := r.Render(context.Background(), testCard())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "/Author")
	assert.Contains(t, string(data), "/Title")
}

func TestPDFRenderer_DefaultsLanguage(t *testing.T) {
	r := NewPDFRenderer(Config{})
	assert.Equal(t, "en", r.cfg.Language)
}

func TestPDFRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFRenderer(Config{}).Render(ctx, testCard())

	assert.ErrorIs(t, err, context.Canceled)
}

// ========================================
// ARCHIVING RENDERER TESTS
// ========================================

type fakeRenderer struct {
	calls int
	out   []byte
	err   error
}

func (f *fakeRenderer) Render(ctx context.Context, card *giftcards.GiftCard) ([]byte, error) {
	f.calls++
	return f.out, f.err
}

type fakeStorage struct {
	objects   map[string][]byte
	uploadErr error
	existsErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	return &storage.UploadResult{Key: key, Size: size, MimeType: contentType}, nil
}

func (f *fakeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStorage) GetURL(key string) string {
	return "https://vouchers.example/" + key
}

func TestArchivingRenderer_RendersOnceThenServesArchive(t *testing.T) {
	card := testCard()
	next := &fakeRenderer{out: []byte("%PDF-1.3 voucher")}
	store := newFakeStorage()
	r := NewArchivingRenderer(next, store)

	first, err := r.Render(context.Background(), card)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), card)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.Contains(t, store.objects, storage.VoucherKey(card.ID, card.Code))
}

func TestArchivingRenderer_StorageFailuresFallBack(t *testing.T) {
	next := &fakeRenderer{out: []byte("%PDF-1.3 voucher")}
	store := newFakeStorage()
	store.existsErr = errors.New("s3 down")
	store.uploadErr = errors.New("s3 down")
	r := NewArchivingRenderer(next, store)

	data, err := r.Render(context.Background(), testCard())

	require.NoError(t, err)
	assert.Equal(t, next.out, data)
	assert.Empty(t, store.objects)
}

func TestArchivingRenderer_RenderError(t *testing.T) {
	next := &fakeRenderer{err: errors.New("boom")}
	store := newFakeStorage()

	_, err := NewArchivingRenderer(next, store).Render(context.Background(), testCard())

	assert.EqualError(t, err, "boom")
	assert.Empty(t, store.objects)
}
