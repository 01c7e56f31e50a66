package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes      = "BSPT"
	FormatVersion   = 1
	HeaderAlignment = 64   // Data section starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Flags for the fixed header.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Tensor layouts.
const (
	LayoutDense = "dense"
	LayoutCOO   = "coo"
	LayoutCSR   = "csr"
)

// Buffer roles.
const (
	RoleData    = "data"
	RoleValues  = "values"
	RoleIndices = "indices"
	RoleInner   = "inner"
	RoleOuter   = "outer"
)

// Header represents the JSON header of a .spt file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .spt format
	WriterVersion string            `json:"writer_version"` // Version of the library that wrote the file
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor metadata, in file order
	Metadata      map[string]string `json:"metadata"`       // Custom metadata
}

// TensorMeta describes one tensor in the file.
type TensorMeta struct {
	Name    string       `json:"name"`             // Tensor name (e.g., "features")
	Layout  string       `json:"layout"`           // dense, coo or csr
	DType   string       `json:"dtype"`            // Element type of the values (e.g., "float32")
	Shape   []int        `json:"shape"`            // Logical dense shape
	Linear  bool         `json:"linear,omitempty"` // COO only: one linear index per value
	Buffers []BufferMeta `json:"buffers"`          // Buffers in role order
}

// BufferMeta locates one buffer in the data section.
type BufferMeta struct {
	Role   string `json:"role"`   // data, values, indices, inner or outer
	Count  int    `json:"count"`  // Number of elements
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// roles returns the buffer roles a layout stores, in order.
func roles(layout string) ([]string, bool) {
	switch layout {
	case LayoutDense:
		return []string{RoleData}, true
	case LayoutCOO:
		return []string{RoleValues, RoleIndices}, true
	case LayoutCSR:
		return []string{RoleValues, RoleInner, RoleOuter}, true
	default:
		return nil, false
	}
}

// padding returns the bytes needed to align pos to HeaderAlignment.
func padding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
