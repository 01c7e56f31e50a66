package memory

import (
	"bytes"
	"fmt"
	"io"

	"github.com/born-ml/sparse/internal/tensor"
	"github.com/klauspost/compress/zstd"
	lz4 "github.com/pierrec/lz4/v4"
	"github.com/zeebo/xxh3"
)

// Codec selects how a CompressedDevice packs its buffers.
type Codec int

// Supported codecs.
const (
	CodecZstd Codec = iota
	CodecLZ4
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// packed is the immutable payload of a compressed buffer.
// A nil blob stands for size zero bytes.
type packed struct {
	blob []byte
	size int
	sum  uint64 // xxh3 of the uncompressed bytes
}

// CompressedDevice is a memory location whose buffers are kept compressed in
// host memory. It is not host addressable: data only enters or leaves through
// its Transfer, which makes it a cheap stand-in for accelerator memory and a
// way to hold large staged tensors compactly.
//
// CompressedDevice implements both Allocator and Transfer.
type CompressedDevice struct {
	loc   tensor.Location
	codec Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressedDevice creates a compressed location with the given codec and index.
func NewCompressedDevice(codec Codec, index int) (*CompressedDevice, error) {
	d := &CompressedDevice{
		loc:   tensor.Location{Device: tensor.Compressed, Index: index},
		codec: codec,
	}
	switch codec {
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("compressed device: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			enc.Close()
			return nil, fmt.Errorf("compressed device: %w", err)
		}
		d.enc, d.dec = enc, dec
	case CodecLZ4:
	default:
		return nil, fmt.Errorf("compressed device: unknown codec %d", codec)
	}
	return d, nil
}

// Close releases codec resources.
func (d *CompressedDevice) Close() {
	if d.enc != nil {
		_ = d.enc.Close()
	}
	if d.dec != nil {
		d.dec.Close()
	}
}

// Codec returns the device's codec.
func (d *CompressedDevice) Codec() Codec {
	return d.codec
}

// Location implements Allocator.
func (d *CompressedDevice) Location() tensor.Location {
	return d.loc
}

// Allocate implements Allocator. String elements are rejected.
func (d *CompressedDevice) Allocate(dtype tensor.DataType, count int) (*tensor.Buffer, error) {
	if dtype.IsString() {
		return nil, fmt.Errorf("compressed device: %w: %s", tensor.ErrUnsupportedLocationForStrings, d.loc)
	}
	size, err := byteSize(dtype, count)
	if err != nil {
		return nil, fmt.Errorf("compressed device: %w", err)
	}
	return tensor.NewDeviceBuffer(d.loc, dtype, count, &packed{size: size}, nil), nil
}

// StoredBytes returns the compressed size of a buffer owned by this device.
func (d *CompressedDevice) StoredBytes(b *tensor.Buffer) int {
	p, ok := b.Handle().(*packed)
	if !ok {
		return 0
	}
	return len(p.blob)
}

// CanCopy implements Transfer: host to device, device to host, and within the device.
func (d *CompressedDevice) CanCopy(src, dst tensor.Location) bool {
	switch {
	case src == d.loc && dst == d.loc:
		return true
	case src == d.loc:
		return dst.HostAddressable()
	case dst == d.loc:
		return src.HostAddressable()
	default:
		return false
	}
}

// Copy implements Transfer.
func (d *CompressedDevice) Copy(src, dst *tensor.Buffer) error {
	if err := checkCopy(src, dst); err != nil {
		return err
	}
	switch {
	case src.Location() == d.loc && dst.Location() == d.loc:
		// Payloads are immutable, so the destination can share it.
		dst.SetHandle(src.Handle())
		return nil
	case dst.Location() == d.loc:
		p, err := d.pack(src.Bytes())
		if err != nil {
			return fmt.Errorf("compressed device: %w", err)
		}
		dst.SetHandle(p)
		return nil
	default:
		p, ok := src.Handle().(*packed)
		if !ok {
			return fmt.Errorf("compressed device: buffer on %s has no payload", src.Location())
		}
		return d.unpack(p, dst.Bytes())
	}
}

func (d *CompressedDevice) pack(raw []byte) (*packed, error) {
	p := &packed{size: len(raw), sum: xxh3.Hash(raw)}
	switch d.codec {
	case CodecZstd:
		p.blob = d.enc.EncodeAll(raw, make([]byte, 0, len(raw)))
	case CodecLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		p.blob = buf.Bytes()
	}
	return p, nil
}

func (d *CompressedDevice) unpack(p *packed, out []byte) error {
	if p.blob == nil {
		clear(out)
		return nil
	}
	var raw []byte
	switch d.codec {
	case CodecZstd:
		dec, err := d.dec.DecodeAll(p.blob, make([]byte, 0, p.size))
		if err != nil {
			return fmt.Errorf("compressed device: %w: %w", tensor.ErrCorruptBuffer, err)
		}
		raw = dec
	case CodecLZ4:
		var buf bytes.Buffer
		buf.Grow(p.size)
		if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(p.blob))); err != nil {
			return fmt.Errorf("compressed device: %w: %w", tensor.ErrCorruptBuffer, err)
		}
		raw = buf.Bytes()
	}
	if len(raw) != len(out) || xxh3.Hash(raw) != p.sum {
		return fmt.Errorf("compressed device: %w: %d bytes unpacked, want %d", tensor.ErrCorruptBuffer, len(raw), len(out))
	}
	copy(out, raw)
	return nil
}
