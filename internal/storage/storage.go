// Package storage uploads operator QRIS images and buyer payment proofs to public object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Store is an object store serving publicly readable URLs.
type Store interface {
	Upload(ctx context.Context, bucket, name, contentType string, body io.Reader, size int64) (publicURL string, err error)
	Delete(ctx context.Context, bucket, name string) error
	// NameFromURL recovers the object name from a public URL issued by this store.
	NameFromURL(bucket, publicURL string) (string, bool)
}

// File is an uploaded file as received from a client.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object identifies a stored object.
type Object struct {
	Bucket string
	Name   string
	URL    string
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// SanitizeFilename keeps letters, digits, dot, dash and underscore.
func SanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	safe := unsafeChars.ReplaceAllString(base, "_")
	if strings.Trim(safe, "._") == "" {
		return "upload"
	}
	return safe
}

func QRISObjectName(filename string, now time.Time) string {
	return fmt.Sprintf("qris-%d-%s", now.UnixMilli(), SanitizeFilename(filename))
}

func ProofObjectName(filename string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFilename(filename))
}

func validObjectName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
