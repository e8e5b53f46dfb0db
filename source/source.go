// Package source abstracts where the precomputed simulation data lives.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrUnsupported = errors.New("operation not supported by source")
)

// Source reads named data files such as "angles.csv" or "dipole_data/vi-0_ai-0.csv".
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns the names under prefix, relative to the source root.
	List(ctx context.Context, prefix string) ([]string, error)
}

type Config struct {
	// dir, http, s3 or gcs
	Kind string `yaml:"kind"`

	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`

	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
	// skip credentials lookup for public buckets
	Anonymous       bool   `yaml:"anonymous"`
	CredentialsFile string `yaml:"credentials_file"`
}

func New(ctx context.Context, cfg Config) (Source, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "dir":
		return NewDir(cfg.Dir), nil
	case "http", "https":
		return NewHTTP(cfg.BaseURL, nil), nil
	case "s3":
		return NewS3(cfg.Bucket, cfg.Prefix, cfg.Region, cfg.Anonymous)
	case "gcs":
		return NewGCS(ctx, cfg.Bucket, cfg.Prefix, cfg.CredentialsFile, cfg.Anonymous)
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
}

type bzReadCloser struct {
	*bzip2.Reader
	under io.Closer
}

func (b *bzReadCloser) Close() error {
	err := b.Reader.Close()
	if cerr := b.under.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenData opens name, falling back to a bzip2 compressed name+".bz2".
func OpenData(ctx context.Context, src Source, name string) (io.ReadCloser, error) {
	rc, err := src.Open(ctx, name)
	if err == nil {
		if strings.HasSuffix(name, ".bz2") {
			return decompress(rc)
		}
		return rc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rc, bzErr := src.Open(ctx, name+".bz2")
	if bzErr != nil {
		if errors.Is(bzErr, ErrNotFound) {
			return nil, err
		}
		return nil, bzErr
	}
	logrus.Debugf("reading compressed %s.bz2", name)
	return decompress(rc)
}

func decompress(rc io.ReadCloser) (io.ReadCloser, error) {
	bz, err := bzip2.NewReader(rc, nil)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return &bzReadCloser{Reader: bz, under: rc}, nil
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	k := path.Join(prefix, name)
	if strings.HasSuffix(name, "/") {
		k += "/"
	}
	return k
}
