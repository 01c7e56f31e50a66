package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/sparse/internal/tensor"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default, recommended for production).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and layouts but not buffer regions.
	ValidationNormal
	// ValidationNone skips validation (dangerous! Use only with trusted input).
	ValidationNone
)

// region is one buffer placed in the data section.
type region struct {
	tensor string
	BufferMeta
}

// ValidateBufferOffsets checks for overlapping buffers and out-of-bounds access.
// Malformed files could otherwise make one tensor read another tensor's bytes.
func ValidateBufferOffsets(tensors []TensorMeta, dataSize int64) error {
	var regions []region
	for _, t := range tensors {
		for _, b := range t.Buffers {
			regions = append(regions, region{tensor: t.Name, BufferMeta: b})
		}
	}
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Offset < regions[j].Offset
	})

	for i, r := range regions {
		if r.Offset < 0 || r.Size < 0 || r.Count < 0 {
			return &ValidationError{
				Kind:    ErrNegativeOffset,
				Tensor:  r.tensor,
				Details: fmt.Sprintf("%s: offset=%d, size=%d, count=%d", r.Role, r.Offset, r.Size, r.Count),
			}
		}
		if r.Offset+r.Size > dataSize {
			return &ValidationError{
				Kind:    ErrOutOfBounds,
				Tensor:  r.tensor,
				Details: fmt.Sprintf("%s: offset %d + size %d > data_size %d", r.Role, r.Offset, r.Size, dataSize),
			}
		}
		if i < len(regions)-1 {
			next := regions[i+1]
			if r.Offset+r.Size > next.Offset {
				return &ValidationError{
					Kind:    ErrOffsetOverlap,
					Tensor:  r.tensor,
					Tensor2: next.tensor,
					Details: fmt.Sprintf("%s [%d-%d] and %s [%d-%d] overlap",
						r.Role, r.Offset, r.Offset+r.Size, next.Role, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects empty, overlong and path-like names.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Kind: ErrInvalidTensorName, Details: "empty name"}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Kind:    ErrInvalidTensorName,
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{
			Kind:    ErrInvalidTensorName,
			Tensor:  name,
			Details: "contains '..', a path separator or a null byte",
		}
	}
	return nil
}

// ValidateTensorLayout checks that a tensor's buffers match its layout and dtype.
func ValidateTensorLayout(t TensorMeta) error {
	want, ok := roles(t.Layout)
	if !ok {
		return &ValidationError{Kind: ErrInvalidLayout, Tensor: t.Name, Details: fmt.Sprintf("unknown layout %q", t.Layout)}
	}
	dt, ok := tensor.ParseDataType(t.DType)
	if !ok {
		return &ValidationError{Kind: ErrInvalidLayout, Tensor: t.Name, Details: fmt.Sprintf("unknown dtype %q", t.DType)}
	}
	if len(t.Buffers) != len(want) {
		return &ValidationError{
			Kind:    ErrInvalidLayout,
			Tensor:  t.Name,
			Details: fmt.Sprintf("%s layout has %d buffers, want %d", t.Layout, len(t.Buffers), len(want)),
		}
	}
	for i, b := range t.Buffers {
		if b.Role != want[i] {
			return &ValidationError{
				Kind:    ErrInvalidLayout,
				Tensor:  t.Name,
				Details: fmt.Sprintf("buffer %d is %q, want %q", i, b.Role, want[i]),
			}
		}
		elem := dt
		if i > 0 {
			elem = tensor.Int64
		}
		if !elem.IsString() && b.Size != int64(b.Count)*int64(elem.Size()) {
			return &ValidationError{
				Kind:    ErrInvalidLayout,
				Tensor:  t.Name,
				Details: fmt.Sprintf("%s holds %d %s elements in %d bytes", b.Role, b.Count, elem, b.Size),
			}
		}
	}
	return nil
}

// ValidateHeader performs comprehensive header validation.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Kind:    ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Kind: ErrDuplicateName, Tensor: t.Name, Details: "listed twice"}
		}
		seen[t.Name] = true
		if err := ValidateTensorLayout(t); err != nil {
			return err
		}
	}

	// Region checks sort every buffer, so only strict mode pays for them.
	if level == ValidationStrict {
		if err := ValidateBufferOffsets(h.Tensors, dataSize); err != nil {
			return err
		}
	}

	return nil
}
