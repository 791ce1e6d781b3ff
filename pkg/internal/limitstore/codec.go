// Package limitstore persists safety limit tables as two-column parquet
// files on local disk or in S3, and rebuilds them when absent.
package limitstore

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeydtaylor/makewaves/pkg/internal/safety"
	parquet "github.com/parquet-go/parquet-go"
)

// ContentType is set on stored objects.
const ContentType = "application/vnd.apache.parquet"

// FingerprintKey is the parquet key/value metadata entry holding the
// table's safety.Fingerprint.
const FingerprintKey = "makewaves.limits.fingerprint"

type limitRow struct {
	Period    float64 `parquet:"period"`
	MaxHeight float64 `parquet:"max_height"`
}

// Compression maps a codec name to a parquet writer option. Unknown names
// fall back to snappy.
func Compression(name string) parquet.WriterOption {
	switch strings.ToLower(name) {
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	case "gzip", "gz":
		return parquet.Compression(&parquet.Gzip)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// Encode writes t as parquet rows of (period, max_height).
func Encode(w io.Writer, t *safety.Table, compression string) error {
	periods, heights := t.Periods(), t.MaxHeights()
	rows := make([]limitRow, len(periods))
	for i := range rows {
		rows[i] = limitRow{Period: periods[i], MaxHeight: heights[i]}
	}

	opts := []parquet.WriterOption{Compression(compression)}
	if fp := t.Fingerprint(); fp != "" {
		opts = append(opts, parquet.KeyValueMetadata(FingerprintKey, fp))
	}
	pw := parquet.NewGenericWriter[limitRow](w, opts...)
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write limit rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close limit writer: %w", err)
	}
	return nil
}

// Decode reads a table written by Encode from size bytes of ra.
func Decode(ra io.ReaderAt, size int64) (*safety.Table, error) {
	pf, err := parquet.OpenFile(ra, size)
	if err != nil {
		return nil, fmt.Errorf("open limit file: %w", err)
	}
	fp, _ := pf.Lookup(FingerprintKey)

	gr := parquet.NewGenericReader[limitRow](ra)
	defer gr.Close()

	var (
		periods []float64
		heights []float64
	)
	batch := make([]limitRow, 1024)
	for {
		n, err := gr.Read(batch)
		for _, r := range batch[:n] {
			periods = append(periods, r.Period)
			heights = append(heights, r.MaxHeight)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read limit rows: %w", err)
		}
	}
	t, err := safety.NewTable(periods, heights)
	if err != nil {
		return nil, err
	}
	return t.WithFingerprint(fp), nil
}
