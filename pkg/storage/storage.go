package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ContentTypePDF is the MIME type of rendered vouchers
const ContentTypePDF = "application/pdf"

// UploadResult contains the result of an upload operation
type UploadResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Storage is the object store used to archive vouchers
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}

// VoucherKey returns the archive key of a card's voucher:
// vouchers/{card_id}/{code}.pdf
func VoucherKey(cardID uuid.UUID, code string) string {
	return fmt.Sprintf("vouchers/%s/%s.pdf", cardID.String(), code)
}
