package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

// File writes each run to dir as <id>.json, <id>.html and <id>.md.
type File struct {
	dir string
}

// NewFile creates a File sink, creating dir if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: file: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) SendSnapshot(context.Context, feature.Snapshot) error { return nil }

func (f *File) SendRun(_ context.Context, run *feature.Run) error {
	data, err := feature.MarshalRun(run)
	if err != nil {
		return fmt.Errorf("sink: file: marshal run %s: %w", run.ID, err)
	}
	page, err := RenderHTML(run)
	if err != nil {
		return err
	}
	md, err := RenderMarkdown(page)
	if err != nil {
		return err
	}
	for ext, body := range map[string][]byte{".json": data, ".html": page, ".md": md} {
		if err := writeAtomic(filepath.Join(f.dir, run.ID+ext), body); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) Close() error { return nil }

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("sink: file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("sink: file: %w", err)
	}
	return nil
}
