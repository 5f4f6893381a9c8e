package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// FileSource reads a JSON history from disk
type FileSource struct {
	name    string
	path    string
	enabled bool
}

// NewFileSource creates a file-backed source
func NewFileSource(name, path string, enabled bool) *FileSource {
	return &FileSource{name: name, path: path, enabled: enabled}
}

// Name returns the name of the data source
func (s *FileSource) Name() string {
	return s.name
}

// IsEnabled returns whether this data source is currently enabled
func (s *FileSource) IsEnabled() bool {
	return s.enabled
}

// Fetch reads and decodes the file
func (s *FileSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewDataSourceError(s.name, ErrCodeNotFound, s.path, fmt.Errorf("%w: %v", ErrNotFound, err))
		}
		return nil, NewDataSourceError(s.name, ErrCodeUnknown, "failed to open history file", err)
	}
	defer f.Close()

	records, err := DecodeRecords(f)
	if err != nil {
		return nil, NewDataSourceError(s.name, ErrCodeInvalidData, "malformed history file", err)
	}
	return records, nil
}
