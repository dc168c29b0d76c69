package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/irwan019/GrkApp/internal/domain/ports"
)

const (
	SchemeFile = "file"
	SchemeS3   = "s3"
)

var ErrObjectStorageDisabled = errors.New("object storage is disabled")

// Destination is a parsed export target: a local path or an s3://bucket/key object.
type Destination struct {
	Scheme string
	Path   string
	Bucket string
	Key    string
}

func (d Destination) String() string {
	if d.Scheme == SchemeS3 {
		return "s3://" + d.Bucket + "/" + d.Key
	}
	return d.Path
}

// ParseDestination accepts plain paths, file:// URLs and s3://bucket/key.
func ParseDestination(dest string) (Destination, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return Destination{}, errors.New("empty export destination")
	}

	if !strings.Contains(dest, "://") {
		return Destination{Scheme: SchemeFile, Path: filepath.Clean(dest)}, nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return Destination{}, fmt.Errorf("invalid export destination %q: %w", dest, err)
	}

	switch u.Scheme {
	case SchemeFile:
		if u.Path == "" {
			return Destination{}, fmt.Errorf("invalid export destination %q: missing path", dest)
		}
		return Destination{Scheme: SchemeFile, Path: filepath.Clean(u.Path)}, nil
	case SchemeS3:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
			return Destination{}, fmt.Errorf("invalid export destination %q: want s3://bucket/key", dest)
		}
		return Destination{Scheme: SchemeS3, Bucket: u.Host, Key: key}, nil
	default:
		return Destination{}, fmt.Errorf("unsupported export destination scheme %q", u.Scheme)
	}
}

// Router sends a save to the file sink or the object sink by destination scheme.
type Router struct {
	file   ports.ExportSink
	object ports.ExportSink
}

// NewRouter accepts a nil object sink when object storage is not configured.
func NewRouter(file, object ports.ExportSink) *Router {
	return &Router{file: file, object: object}
}

func (r *Router) Save(ctx context.Context, dest string, data io.Reader, size int64, contentType string) (string, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return "", err
	}

	if d.Scheme == SchemeS3 {
		if r.object == nil {
			return "", fmt.Errorf("%s: %w", d, ErrObjectStorageDisabled)
		}
		return r.object.Save(ctx, dest, data, size, contentType)
	}
	return r.file.Save(ctx, dest, data, size, contentType)
}
