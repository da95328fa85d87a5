// Package store persists downloaded tables to a local directory or an
// S3-compatible object store.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/marians/genesisclient/internal/config"
	"github.com/marians/genesisclient/internal/core"
)

// ObjectStore abstracts the operations needed to keep exported tables.
type ObjectStore interface {
	Ping(ctx context.Context) error
	// Put writes data under key and returns a human-readable location.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open builds the store selected by cfg.
func Open(cfg config.StoreConfig) (ObjectStore, error) {
	switch strings.ToLower(cfg.Kind) {
	case config.StoreLocal, "":
		return NewLocalStore(cfg.Dir), nil
	case config.StoreS3:
		s3, err := NewS3Store(S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, &core.ConfigurationError{Field: "store.kind", Message: fmt.Sprintf("unknown store kind %q", cfg.Kind)}
	}
}

// ContentType returns the MIME type stored with an export of format f.
func ContentType(f core.Format) string {
	switch f {
	case core.FormatCSV:
		return "text/csv"
	case core.FormatHTML:
		return "text/html"
	case core.FormatXLS:
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// SaveExport writes table under its file name and returns the location.
func SaveExport(ctx context.Context, s ObjectStore, table *core.ExportedTable) (string, error) {
	return s.Put(ctx, table.FileName(), table.Payload.Bytes(), ContentType(table.Format))
}
