// Package fingerprint computes a cheap, non-cryptographic change hint for files.
//
// The fingerprint covers (size, mtime, path) plus the full content for files
// under 1 KB. It flags likely changes between runs; it is NOT collision
// resistant and must never be used as an integrity guarantee.
package fingerprint

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
)

const smallFileLimit = 1024

// File returns the fingerprint for the file at path with the given stat info.
func File(path string, info fs.FileInfo) (string, error) {
	h := fnv.New64a()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(info.Size()))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(info.ModTime().Unix()))
	h.Write(buf[:])
	h.Write([]byte(path))

	if info.Mode().IsRegular() && info.Size() < smallFileLimit {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint: read %s: %w", path, err)
		}
		h.Write(data)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
