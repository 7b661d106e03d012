package corpus

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultSampleSize is the number of bytes indexed per document.
const DefaultSampleSize = 10240

// ReadSample returns up to size bytes from the start of the file at path,
// decoded as UTF-8. Invalid sequences, including a rune cut in half by the
// size limit, are dropped.
func ReadSample(path string, size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("sample size must be positive, got %d", size)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	buf, err := io.ReadAll(io.LimitReader(f, int64(size)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return decodeLossy(buf), nil
}

// LoadFull returns the whole file at path, decoded the same way as ReadSample.
func LoadFull(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return decodeLossy(buf), nil
}

func decodeLossy(buf []byte) string {
	return strings.ToValidUTF8(string(buf), "")
}
