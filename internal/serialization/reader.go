package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/sparse/internal/tensor"
)

// ReaderOptions configures how files are read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// ReadFile reads every tensor of the .spt file at path into host memory.
func ReadFile(path string, opts ReaderOptions) ([]Entry, Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadFrom(bufio.NewReader(file), opts)
}

// ReadFrom reads every tensor of a .spt stream into host memory.
// The caller owns the returned tensors; see ReleaseAll.
func ReadFrom(r io.Reader, opts ReaderOptions) ([]Entry, Header, error) {
	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixedHeader); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", truncated(err))
	}
	if string(fixedHeader[0:4]) != MagicBytes {
		return nil, Header{}, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, fixedHeader[0:4], MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(fixedHeader[4:8]); version != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, Header{}, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header JSON: %w", truncated(err))
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	if pad := padding(int64(FixedHeaderSize) + int64(headerSize)); pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read padding: %w", truncated(err))
		}
	}

	// Grow the buffer as data arrives instead of trusting dataSize up front.
	//nolint:gosec // G115: a larger size cannot be satisfied by the limited reader
	data, err := io.ReadAll(io.LimitReader(r, int64(dataSize)))
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if uint64(len(data)) != dataSize {
		return nil, Header{}, fmt.Errorf("%w: data section has %d of %d bytes", ErrTruncated, len(data), dataSize)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, Header{}, err
		}
	}
	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, Header{}, fmt.Errorf("validation failed: %w", err)
	}

	entries := make([]Entry, 0, len(header.Tensors))
	for _, meta := range header.Tensors {
		e, err := load(meta, data)
		if err != nil {
			ReleaseAll(entries)
			return nil, Header{}, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		entries = append(entries, e)
	}
	return entries, header, nil
}

// load builds one tensor from its metadata and the data section.
func load(meta TensorMeta, data []byte) (Entry, error) {
	want, ok := roles(meta.Layout)
	if !ok || len(meta.Buffers) != len(want) {
		return Entry{}, fmt.Errorf("%w: %s with %d buffers", ErrInvalidLayout, meta.Layout, len(meta.Buffers))
	}
	dtype, ok := tensor.ParseDataType(meta.DType)
	if !ok {
		return Entry{}, fmt.Errorf("%w: unknown dtype %q", ErrInvalidLayout, meta.DType)
	}
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return Entry{}, fmt.Errorf("invalid shape: %w", err)
	}

	bufs := make([]*tensor.Buffer, 0, len(meta.Buffers))
	fail := func(err error) (Entry, error) {
		for _, b := range bufs {
			b.Release()
		}
		return Entry{}, err
	}
	for i, b := range meta.Buffers {
		if b.Offset < 0 || b.Size < 0 || b.Offset > int64(len(data))-b.Size {
			return fail(fmt.Errorf("%w: %s [%d+%d]", ErrOutOfBounds, b.Role, b.Offset, b.Size))
		}
		elem := dtype
		if i > 0 {
			elem = tensor.Int64
		}
		buf, err := decodeBuffer(elem, b.Count, data[b.Offset:b.Offset+b.Size])
		if err != nil {
			return fail(fmt.Errorf("%s: %w", b.Role, err))
		}
		bufs = append(bufs, buf)
	}

	e := Entry{Name: meta.Name}
	var err error
	switch meta.Layout {
	case LayoutDense:
		e.Dense, err = tensor.NewDense(shape, bufs[0])
	case LayoutCOO:
		e.Sparse, err = tensor.NewCOO(shape, bufs[0], bufs[1], meta.Linear)
	case LayoutCSR:
		e.Sparse, err = tensor.NewCSR(shape, bufs[0], bufs[1], bufs[2])
	}
	if err != nil {
		return fail(err)
	}
	return e, nil
}

// truncated maps a short read to ErrTruncated.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}
