package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("storage: object not found")

// BlobStore keeps uploaded project documentation.
type BlobStore interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, objectName string) error
}
