package importer

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/levutuan/tragia/internal/store"
)

const batchSize = 5_000

// Import reads a gzip-compressed JSONL catalog dump, builds a Pebble KV
// store and Bleve slug index inside outputDir, and returns the resulting
// manifest.
//
// Lines with an empty name, a non-positive retail price or a malformed
// barcode are skipped and counted per reason.
func Import(dumpPath, outputDir string, verbose bool) (*store.Manifest, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s, err := store.Open(outputDir, store.Options{})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	f, err := os.Open(dumpPath)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer gz.Close()

	var (
		productCount int64
		skippedCount int64
		skipReasons  = make(map[string]int64)
		startTime    = time.Now()
		nowMs        = startTime.UnixMilli()
	)

	batch := s.NewWriteBatch()

	scanner := bufio.NewScanner(gz)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var d DumpProduct
		if err := json.Unmarshal(line, &d); err != nil {
			skippedCount++
			skipReasons["parse_error"]++
			slog.Debug("json unmarshal error, skipping line", "error", err)
			continue
		}

		if reason := d.SkipReason(); reason != "" {
			skippedCount++
			skipReasons[reason]++
			continue
		}

		batch.Put(d.Product(nowMs))
		productCount++

		if batch.Len() >= batchSize {
			if err := batch.Flush(); err != nil {
				return nil, fmt.Errorf("batch flush: %w", err)
			}
		}

		if verbose && productCount%10_000 == 0 {
			elapsed := time.Since(startTime)
			rate := float64(productCount) / elapsed.Seconds()
			slog.Info("import progress",
				"products", productCount,
				"skipped", skippedCount,
				"rate_per_s", int(rate),
				"elapsed", elapsed.Round(time.Second),
			)
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	if err := batch.Close(); err != nil {
		return nil, fmt.Errorf("final batch flush: %w", err)
	}

	m := &store.Manifest{
		BuildTime:     time.Now().UTC(),
		DumpSource:    dumpPath,
		ProductCount:  productCount,
		SkippedCount:  skippedCount,
		SchemaVersion: 1,
		SkipReasons:   skipReasons,
	}

	if err := store.WriteManifest(outputDir, m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return m, nil
}
