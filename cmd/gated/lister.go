package main

import (
	"strconv"
	"strings"

	"github.com/vango-dev/gated/internal/catalog"
	"github.com/vango-dev/gated/internal/config"
	"github.com/vango-dev/gated/internal/errors"
)

// newLister builds the catalog backend named by cfg. The returned func
// releases it.
func newLister(cfg *config.Config) (catalog.Lister, func(), error) {
	switch cfg.Catalog.Backend {
	case config.BackendS3:
		client := catalog.NewS3Client(catalog.S3Options{
			Region:       cfg.Catalog.Region,
			Endpoint:     cfg.Catalog.Endpoint,
			UsePathStyle: cfg.Catalog.UsePathStyle,
		})
		return catalog.NewS3Lister(client, cfg.Catalog.Bucket, cfg.Catalog.Prefix), func() {}, nil

	case config.BackendMemory:
		objects, err := seedObjects(cfg.Catalog.Seed)
		if err != nil {
			return nil, nil, err
		}
		m := catalog.NewMemoryLister()
		for _, o := range objects {
			m.Put(o)
		}
		return m, m.Close, nil
	}
	return nil, nil, errors.New(errors.CodeConfigInvalid).
		WithDetailf("unknown catalog.backend %q", cfg.Catalog.Backend)
}

// seedObjects parses seed entries of the form "key" or "key=size".
func seedObjects(seed []string) ([]catalog.Object, error) {
	objects := make([]catalog.Object, 0, len(seed))
	for _, entry := range seed {
		key, size, found := strings.Cut(entry, "=")
		o := catalog.Object{Key: strings.TrimSpace(key)}
		if o.Key == "" {
			return nil, errors.New(errors.CodeConfigInvalid).
				WithDetailf("catalog.seed entry %q has no key", entry)
		}
		if found {
			n, err := strconv.ParseInt(strings.TrimSpace(size), 10, 64)
			if err != nil || n < 0 {
				return nil, errors.New(errors.CodeConfigInvalid).
					WithDetailf("catalog.seed entry %q has an invalid size", entry).
					WithSuggestion("Use \"key\" or \"key=bytes\"")
			}
			o.Size = n
		}
		objects = append(objects, o)
	}
	return objects, nil
}
