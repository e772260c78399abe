// Package catalog lists objects from a bucket-like store and summarizes
// them. It backs the search example: S3Lister reads a real bucket and
// MemoryLister serves tests and local runs.
package catalog

import (
	"context"
	"time"
)

// Object is one entry of a catalog listing.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"etag,omitempty"`
}

// Summary aggregates every object under a prefix.
type Summary struct {
	Prefix  string    `json:"prefix"`
	Objects int       `json:"objects"`
	Bytes   int64     `json:"bytes"`
	Newest  time.Time `json:"newest"`
}

// Equal reports whether two summaries describe the same contents.
func (s Summary) Equal(o Summary) bool {
	return s.Prefix == o.Prefix && s.Objects == o.Objects && s.Bytes == o.Bytes && s.Newest.Equal(o.Newest)
}

// Lister lists objects whose keys start with prefix, in key order. A limit
// of zero or less means no limit.
type Lister interface {
	List(ctx context.Context, prefix string, limit int) ([]Object, error)
}

// Summarize lists every object under prefix and aggregates them.
func Summarize(ctx context.Context, l Lister, prefix string) (Summary, error) {
	objects, err := l.List(ctx, prefix, 0)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Prefix: prefix, Objects: len(objects)}
	for _, o := range objects {
		s.Bytes += o.Size
		if o.LastModified.After(s.Newest) {
			s.Newest = o.LastModified
		}
	}
	return s, nil
}
