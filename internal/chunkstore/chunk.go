package chunkstore

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/frames2osb/internal/decompose"
)

// ErrIntermediateStorage covers an unusable data directory and missing or
// corrupt chunk files.
var ErrIntermediateStorage = errors.New("intermediate storage failure")

const (
	chunkPrefix = "data_"
	chunkSuffix = ".json.gz"
)

// ChunkName is the file name of a shard. Zero padding keeps lexicographic
// order equal to shard order.
func ChunkName(shard int) string {
	return fmt.Sprintf("%s%05d%s", chunkPrefix, shard, chunkSuffix)
}

// ChunkIndex parses the shard index back out of a chunk file name.
func ChunkIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, chunkPrefix) || !strings.HasSuffix(name, chunkSuffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, chunkPrefix), chunkSuffix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Reset wipes dir and creates it empty.
func Reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrIntermediateStorage, dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIntermediateStorage, dir, err)
	}
	return nil
}

// WriteChunk stores the frames of one shard. The file only appears under its
// final name once it is completely written.
func WriteChunk(dir string, shard int, frames []decompose.Frame) (string, error) {
	path := filepath.Join(dir, ChunkName(shard))
	tmp := path + ".tmp"

	if err := writeGzipJSON(tmp, frames); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: write %s: %v", ErrIntermediateStorage, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: commit %s: %v", ErrIntermediateStorage, path, err)
	}
	return path, nil
}

func writeGzipJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadChunk loads the frames of one shard.
func ReadChunk(path string) ([]decompose.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIntermediateStorage, path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is corrupt: %v", ErrIntermediateStorage, path, err)
	}
	defer zr.Close()

	var frames []decompose.Frame
	if err := json.NewDecoder(zr).Decode(&frames); err != nil {
		return nil, fmt.Errorf("%w: %s is corrupt: %v", ErrIntermediateStorage, path, err)
	}
	return frames, nil
}

// List returns the chunk files in dir ordered by shard index.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIntermediateStorage, dir, err)
	}

	type chunk struct {
		index int
		name  string
	}
	var chunks []chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if i, ok := ChunkIndex(entry.Name()); ok {
			chunks = append(chunks, chunk{index: i, name: entry.Name()})
		}
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].index < chunks[j].index
	})

	names := make([]string, len(chunks))
	for i, c := range chunks {
		names[i] = c.name
	}
	return names, nil
}
