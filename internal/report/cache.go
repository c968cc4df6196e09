package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// CachePath returns the bundle cache file for a report period under dir.
func CachePath(dir string, year, month int) string {
	return filepath.Join(dir, fmt.Sprintf("%04d%02d_bundle.msgpack", year, month))
}

// WriteCache serializes the bundle to its msgpack cache file. The cache lets
// report-server load a period without re-parsing the JSON artifacts.
func (b *Bundle) WriteCache(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := msgpack.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle cache: %w", err)
	}
	path := CachePath(dir, b.Year, b.Month)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle cache: %w", err)
	}
	return nil
}

// ReadCache loads a cached bundle for the given period.
func ReadCache(dir string, year, month int) (*Bundle, error) {
	data, err := os.ReadFile(CachePath(dir, year, month))
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshal bundle cache: %w", err)
	}
	return &b, nil
}
