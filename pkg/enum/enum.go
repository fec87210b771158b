// Package enum discovers the source files a scan should visit.
package enum

import (
	"context"
)

// Enumerator discovers source files to scan from a root.
type Enumerator interface {
	// Enumerate yields files under the root. The callback receives
	// the file path and its content.
	Enumerate(ctx context.Context, callback func(path string, content []byte) error) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Extensions restricts enumeration to the given file extensions.
	// Empty means Rust sources only.
	Extensions []string
}
