// Package storage is the remote file store the upload flow writes into.
//
// Every backend exposes the same four operations. Folder creation is
// idempotent and walks the path one segment at a time, uploads never retry
// and deletes treat a missing object as success.
package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrAlreadyExists is returned by a non-overwriting Upload when the target exists.
	ErrAlreadyExists = errors.New("object already exists")
	// ErrNotFound is returned by backends for a missing object.
	ErrNotFound = errors.New("object not found")
)

// Client is the storage surface used by the upload flow.
type Client interface {
	// EnsureFolder creates every prefix of path that does not exist yet.
	EnsureFolder(ctx context.Context, path string) error
	// Exists reports whether an object is present at path. Transport errors
	// are reported as false.
	Exists(ctx context.Context, path string) bool
	// Upload writes data to path. With overwrite false an existing object
	// yields ErrAlreadyExists.
	Upload(ctx context.Context, path string, data []byte, overwrite bool) error
	// Delete removes the object at path. A missing object is not an error.
	Delete(ctx context.Context, path string) error
	// Name identifies the backend in logs.
	Name() string
}

// Prefixes splits path into its cumulative folder prefixes:
// "a/b/c" -> ["a", "a/b", "a/b/c"]. A leading slash is kept on every prefix.
func Prefixes(path string) []string {
	lead := ""
	if strings.HasPrefix(path, "/") {
		lead = "/"
	}
	var (
		out []string
		cur strings.Builder
	)
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte('/')
		}
		cur.WriteString(seg)
		out = append(out, lead+cur.String())
	}
	return out
}

// ensureEach runs create for every prefix of path and stops on the first
// failure. create must treat an existing folder as success.
func ensureEach(ctx context.Context, path string, create func(context.Context, string) error) error {
	for _, prefix := range Prefixes(path) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := create(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
