package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

// Key normalizes a file path into a cache key: cleaned, slash-separated,
// and NFC-normalized so decomposed paths reported by some filesystems
// (macOS NFD) do not fork duplicate entries for the same file.
func Key(path string) string {
	return norm.NFC.String(filepath.ToSlash(filepath.Clean(path)))
}

// ModTimeToken returns the development-mode validity token for a file:
// its modification time at nanosecond resolution plus size. Any change to
// either invalidates the entry on the next lookup.
func ModTimeToken(path string) (Token, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return Token(fmt.Sprintf("mtime:%d:%d", info.ModTime().UnixNano(), info.Size())), nil
}

// ContentToken returns the production-mode validity token for file
// contents: an xxhash digest, so identical content always maps to the
// same token regardless of timestamps.
func ContentToken(data []byte) Token {
	return Token(fmt.Sprintf("xxh:%016x", xxhash.Sum64(data)))
}
