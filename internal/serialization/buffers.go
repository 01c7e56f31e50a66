package serialization

import (
	"encoding/binary"
	"fmt"

	"github.com/born-ml/sparse/internal/tensor"
)

// encodeBuffer returns the stored bytes of a host buffer. Numeric buffers are
// returned without copying.
func encodeBuffer(b *tensor.Buffer) ([]byte, error) {
	if !b.Location().HostAddressable() {
		return nil, fmt.Errorf("%w: buffer on %s", tensor.ErrNotHostAddressable, b.Location())
	}
	if !b.DType().IsString() {
		return b.Bytes(), nil
	}
	var out []byte
	for _, s := range b.Strings() {
		out = binary.AppendUvarint(out, uint64(len(s)))
		out = append(out, s...)
	}
	return out, nil
}

// decodeBuffer builds a host buffer of count dtype elements from stored bytes.
func decodeBuffer(dtype tensor.DataType, count int, data []byte) (*tensor.Buffer, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative element count %d", ErrInvalidLayout, count)
	}
	if !dtype.IsString() {
		if len(data) != count*dtype.Size() {
			return nil, fmt.Errorf("%w: %d bytes for %d %s elements", ErrInvalidLayout, len(data), count, dtype)
		}
		b := tensor.NewHostBuffer(tensor.Host, dtype, count)
		copy(b.Bytes(), data)
		return b, nil
	}

	// Every string takes at least one length byte.
	if count > len(data) {
		return nil, fmt.Errorf("%w: %d bytes for %d strings", ErrTruncated, len(data), count)
	}
	b := tensor.NewHostBuffer(tensor.Host, dtype, count)
	strs := b.Strings()
	for i := range strs {
		n, k := binary.Uvarint(data)
		if k <= 0 || n > uint64(len(data)-k) {
			b.Release()
			return nil, fmt.Errorf("%w: string %d", ErrTruncated, i)
		}
		strs[i] = string(data[k : k+int(n)])
		data = data[k+int(n):]
	}
	if len(data) != 0 {
		b.Release()
		return nil, fmt.Errorf("%w: %d trailing bytes after %d strings", ErrInvalidLayout, len(data), count)
	}
	return b, nil
}
