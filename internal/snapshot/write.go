package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
)

// Write stores s's index and link graph at the paths named by cfg. Each
// file is written to a temporary sibling and renamed into place, so a
// concurrent Load sees either the old or the new file, never a partial one.
// The page list is the indexer's input and is left untouched.
func Write(cfg config.DataConfig, s *Snapshot) error {
	if err := writeAtomic(cfg.IndexPath, func(w io.Writer) error {
		return corpus.EncodeIndex(w, s.Index)
	}); err != nil {
		return err
	}
	return writeAtomic(cfg.GraphPath, func(w io.Writer) error {
		return graph.Encode(w, s.Graph)
	})
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
