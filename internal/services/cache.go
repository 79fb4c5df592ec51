package services

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

const cacheVersion = "v2"

// cachedDataset is the gob payload stored next to the source file's
// identity so a stale cache is never served.
type cachedDataset struct {
	Source     string
	SourceSize int64
	SourceMod  time.Time
	Records    []models.Record
}

type datasetCache struct {
	dir string
}

func (c datasetCache) enabled() bool {
	return c.dir != ""
}

func (c datasetCache) filename(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_").Replace(abs)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

// load returns the cached records for source when the cache was written for
// the file as it currently is on disk.
func (c datasetCache) load(source string, info os.FileInfo) ([]models.Record, error) {
	file, err := os.Open(c.filename(source))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data cachedDataset
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}

	if data.SourceSize != info.Size() || !data.SourceMod.Equal(info.ModTime()) {
		return nil, fmt.Errorf("cache is stale for %s", source)
	}

	return data.Records, nil
}

func (c datasetCache) save(source string, info os.FileInfo, records []models.Record) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	// Readers only ever see a complete cache file.
	tmp, err := os.CreateTemp(c.dir, "dataset-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	data := cachedDataset{
		Source:     source,
		SourceSize: info.Size(),
		SourceMod:  info.ModTime(),
		Records:    records,
	}
	if err := gob.NewEncoder(tmp).Encode(&data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.filename(source))
}
