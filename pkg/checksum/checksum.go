// Package checksum computes the content digests used to compare local files
// with their copies on the remote target.
package checksum

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

const bufferSize = 64 * 1024 // 64KB buffer

// File streams the file at path through the digest in bufferSize chunks and
// returns the hex encoded BLAKE3 sum. The file is never loaded whole.
func File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return sum, nil
}

// Reader digests r until EOF.
func Reader(r io.Reader) (string, error) {
	h := blake3.New()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, werr := h.Write(buffer[:n]); werr != nil {
				return "", fmt.Errorf("write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes digests an in-memory buffer. The result is directly comparable with
// File and Reader.
func Bytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two digests describe the same content.
func Equal(a, b string) bool {
	return a != "" && a == b
}
