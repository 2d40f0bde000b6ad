package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/levutuan/tragia/internal/catalog"
)

const schemaVersion = 1

// encodeProduct serialises a product into a compact binary format:
//
//	version    uvarint  (=1)
//	barcode    uvarint-prefixed string
//	name       uvarint-prefixed string
//	slug       uvarint-prefixed string
//	retail     float64 LE
//	wholesale  float64 LE
//	unit       uvarint-prefixed string
//	location   uvarint-prefixed string
//	image      uvarint-prefixed string
//	updatedAt  uvarint (epoch milliseconds)
//
// The ID is NOT stored in the blob; it lives in the key.
func encodeProduct(p catalog.Product) []byte {
	var buf bytes.Buffer
	writeUvarint(&buf, schemaVersion)
	writeString(&buf, p.Barcode)
	writeString(&buf, p.Name)
	writeString(&buf, p.SearchSlug)
	writeFloat64LE(&buf, p.Prices.Retail)
	writeFloat64LE(&buf, p.Prices.Wholesale)
	writeString(&buf, p.Unit)
	writeString(&buf, p.Location)
	writeString(&buf, p.Image)
	writeUvarint(&buf, uint64(p.UpdatedAt))
	return buf.Bytes()
}

// decodeProduct parses a blob produced by encodeProduct. The caller must set
// the ID field from the key.
func decodeProduct(data []byte) (catalog.Product, error) {
	r := bytes.NewReader(data)

	ver, err := binary.ReadUvarint(r)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("read version: %w", err)
	}
	if ver != schemaVersion {
		return catalog.Product{}, fmt.Errorf("unsupported schema version %d", ver)
	}

	var p catalog.Product
	fields := []struct {
		name string
		dst  *string
	}{
		{"barcode", &p.Barcode},
		{"name", &p.Name},
		{"slug", &p.SearchSlug},
	}
	for _, f := range fields {
		if *f.dst, err = readString(r); err != nil {
			return catalog.Product{}, fmt.Errorf("read %s: %w", f.name, err)
		}
	}

	if p.Prices.Retail, err = readFloat64LE(r); err != nil {
		return catalog.Product{}, fmt.Errorf("read retail: %w", err)
	}
	if p.Prices.Wholesale, err = readFloat64LE(r); err != nil {
		return catalog.Product{}, fmt.Errorf("read wholesale: %w", err)
	}

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"unit", &p.Unit},
		{"location", &p.Location},
		{"image", &p.Image},
	} {
		if *f.dst, err = readString(r); err != nil {
			return catalog.Product{}, fmt.Errorf("read %s: %w", f.name, err)
		}
	}

	updated, err := binary.ReadUvarint(r)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("read updatedAt: %w", err)
	}
	p.UpdatedAt = int64(updated)
	return p, nil
}

func writeUvarint(w *bytes.Buffer, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	w.Write(buf[:n])
}

func writeString(w *bytes.Buffer, s string) {
	writeUvarint(w, uint64(len(s)))
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeFloat64LE(w *bytes.Buffer, f float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	w.Write(b[:])
}

func readFloat64LE(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
}
