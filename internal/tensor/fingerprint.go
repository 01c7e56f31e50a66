package tensor

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns an xxh3 hash over the tensor's dtype, shape and elements.
// Two host tensors with equal fingerprints hold the same data with overwhelming probability.
func (d *Dense) Fingerprint() (uint64, error) {
	if !d.Location().HostAddressable() {
		return 0, fmt.Errorf("fingerprint: %w: tensor on %s", ErrNotHostAddressable, d.Location())
	}
	h := xxh3.New()
	writeHeader(h, d.DType(), d.shape, 0)
	writeBuffer(h, d.buf)
	return h.Sum64(), nil
}

// Fingerprint returns an xxh3 hash over the tensor's format, dtype, shape,
// values and index arrays. It is sensitive to value order; two encodings of
// the same matrix in different layouts hash differently.
func (s *Sparse) Fingerprint() (uint64, error) {
	if !s.Location().HostAddressable() {
		return 0, fmt.Errorf("fingerprint: %w: tensor on %s", ErrNotHostAddressable, s.Location())
	}
	h := xxh3.New()
	writeHeader(h, s.DType(), s.shape, s.format)
	writeBuffer(h, s.values)
	switch s.format {
	case COO:
		if s.linear {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{2})
		}
		writeBuffer(h, s.indices)
	case CSR:
		writeBuffer(h, s.inner)
		writeBuffer(h, s.outer)
	}
	return h.Sum64(), nil
}

func writeHeader(h *xxh3.Hasher, dt DataType, shape Shape, f Format) {
	var scratch [8]byte
	put := func(v int) {
		binary.LittleEndian.PutUint64(scratch[:], uint64(v))
		_, _ = h.Write(scratch[:])
	}
	put(int(dt))
	put(int(f))
	put(len(shape))
	for _, dim := range shape {
		put(dim)
	}
}

func writeBuffer(h *xxh3.Hasher, b *Buffer) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(b.Len()))
	_, _ = h.Write(scratch[:])
	if !b.DType().IsString() {
		_, _ = h.Write(b.Bytes())
		return
	}
	for _, s := range b.Strings() {
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(s)))
		_, _ = h.Write(scratch[:])
		_, _ = h.WriteString(s)
	}
}
