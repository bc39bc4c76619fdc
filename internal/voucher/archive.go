package voucher

import (
	"bytes"
	"context"
	"io"

	"github.com/richxcame/giftcards/internal/giftcards"
	"github.com/richxcame/giftcards/pkg/logger"
	"github.com/richxcame/giftcards/pkg/storage"
	"go.uber.org/zap"
)

// ArchivingRenderer keeps one rendered copy of each voucher in object
// storage and serves it on later requests. Storage failures fall back to
// rendering.
type ArchivingRenderer struct {
	next  giftcards.VoucherRenderer
	store storage.Storage
}

// NewArchivingRenderer wraps next with a storage-backed archive
func NewArchivingRenderer(next giftcards.VoucherRenderer, store storage.Storage) *ArchivingRenderer {
	return &ArchivingRenderer{next: next, store: store}
}

var _ giftcards.VoucherRenderer = (*ArchivingRenderer)(nil)

// Render returns the archived voucher if present, otherwise renders and
// uploads it
func (a *ArchivingRenderer) Render(ctx context.Context, card *giftcards.GiftCard) ([]byte, error) {
	key := storage.VoucherKey(card.ID, card.Code)
	log := logger.WithContext(ctx).With(zap.String("key", key))

	if data, ok := a.fetch(ctx, key); ok {
		return data, nil
	}

	data, err := a.next.Render(ctx, card)
	if err != nil {
		return nil, err
	}

	if _, err := a.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), storage.ContentTypePDF); err != nil {
		log.Warn("failed to archive voucher", zap.Error(err))
	}
	return data, nil
}

func (a *ArchivingRenderer) fetch(ctx context.Context, key string) ([]byte, bool) {
	log := logger.WithContext(ctx).With(zap.String("key", key))

	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		log.Warn("failed to check voucher archive", zap.Error(err))
		return nil, false
	}
	if !exists {
		return nil, false
	}

	rc, err := a.store.Download(ctx, key)
	if err != nil {
		log.Warn("failed to download archived voucher", zap.Error(err))
		return nil, false
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		log.Warn("failed to read archived voucher", zap.Error(err))
		return nil, false
	}
	return data, true
}
