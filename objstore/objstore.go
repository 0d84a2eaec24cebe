// Package objstore stores receipt files, either in a Cloudflare R2 bucket or
// on local disk.
package objstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/gosimple/slug"
)

var ErrNotFound = errors.New("objstore: object not found")

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ReceiptKey builds "receipts/<user>/<tx>/<slugged-name><ext>".
func ReceiptKey(userID, txID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "comprovante"
	}
	return path.Join("receipts", userID, txID, base+ext)
}
