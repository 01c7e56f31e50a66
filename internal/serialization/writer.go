package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/born-ml/sparse/internal/tensor"
)

const writerVersion = "0.1.0"

// Entry is one named tensor. Exactly one of Dense and Sparse is set.
type Entry struct {
	Name   string
	Dense  *tensor.Dense
	Sparse *tensor.Sparse
}

// Release drops the entry's tensor.
func (e Entry) Release() {
	e.Dense.Release()
	e.Sparse.Release()
}

// ReleaseAll releases every entry.
func ReleaseAll(entries []Entry) {
	for _, e := range entries {
		e.Release()
	}
}

// describe returns the metadata and stored bytes of an entry. Offsets are
// relative to the entry's first buffer.
func describe(e Entry) (TensorMeta, [][]byte, error) {
	var (
		meta TensorMeta
		bufs []*tensor.Buffer
	)
	switch {
	case e.Dense != nil && e.Sparse == nil:
		meta = TensorMeta{Layout: LayoutDense, DType: e.Dense.DType().String(), Shape: e.Dense.Shape()}
		bufs = []*tensor.Buffer{e.Dense.Buffer()}
	case e.Sparse != nil && e.Dense == nil:
		s := e.Sparse
		meta = TensorMeta{DType: s.DType().String(), Shape: s.Shape()}
		switch s.Format() {
		case tensor.COO:
			meta.Layout, meta.Linear = LayoutCOO, s.LinearIndices()
			bufs = []*tensor.Buffer{s.Values(), s.Indices()}
		case tensor.CSR:
			meta.Layout = LayoutCSR
			bufs = []*tensor.Buffer{s.Values(), s.Inner(), s.Outer()}
		default:
			return TensorMeta{}, nil, fmt.Errorf("%w: %s", tensor.ErrUnsupportedFormat, s.Format())
		}
	default:
		return TensorMeta{}, nil, ErrInvalidEntry
	}

	meta.Name = e.Name
	meta.Shape = append([]int(nil), meta.Shape...)
	want, _ := roles(meta.Layout)
	blobs := make([][]byte, len(bufs))
	var offset int64
	for i, b := range bufs {
		data, err := encodeBuffer(b)
		if err != nil {
			return TensorMeta{}, nil, fmt.Errorf("%s: %w", want[i], err)
		}
		blobs[i] = data
		meta.Buffers = append(meta.Buffers, BufferMeta{
			Role:   want[i],
			Count:  b.Len(),
			Offset: offset,
			Size:   int64(len(data)),
		})
		offset += int64(len(data))
	}
	return meta, blobs, nil
}

// Write writes entries to out in .spt format. Every tensor must be host
// addressable and every name unique and valid.
func Write(out io.Writer, entries []Entry, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		WriterVersion: writerVersion,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(entries)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Calculate buffer offsets and collect the stored bytes
	var (
		blobs         [][]byte
		currentOffset int64
	)
	for _, e := range entries {
		meta, data, err := describe(e)
		if err != nil {
			return fmt.Errorf("tensor %q: %w", e.Name, err)
		}
		for i := range meta.Buffers {
			meta.Buffers[i].Offset += currentOffset
			currentOffset += meta.Buffers[i].Size
		}
		header.Tensors = append(header.Tensors, meta)
		blobs = append(blobs, data...)
	}
	if err := ValidateHeader(&header, currentOffset, ValidationStrict); err != nil {
		return err
	}

	checksum := ComputeChecksum(blobs...)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixedHeader := make([]byte, FixedHeaderSize)

	// 0x00-0x03: Magic bytes
	copy(fixedHeader[0:4], MagicBytes)

	// 0x04-0x07: Version
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	// 0x08-0x0B: Flags
	flags := uint32(0)
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F: Reserved (0)

	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))

	// 0x18-0x1F: Data size
	//nolint:gosec // G115: currentOffset is a sum of non-negative sizes
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(currentOffset))

	// 0x20-0x3F: SHA-256 checksum
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	bw := bufio.NewWriter(out)
	if _, err := bw.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if pad := padding(int64(FixedHeaderSize + len(headerJSON))); pad > 0 {
		if _, err := bw.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	for _, b := range blobs {
		if _, err := bw.Write(b); err != nil {
			return fmt.Errorf("failed to write tensor data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// WriteFile writes entries to a new .spt file at path.
// A failed write removes the partial file.
func WriteFile(path string, entries []Entry, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return Write(file, entries, metadata)
}
