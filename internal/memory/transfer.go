package memory

import (
	"fmt"
	"sync"

	"github.com/born-ml/sparse/internal/tensor"
)

// Transfer copies buffer contents between memory locations.
// Copy is synchronous: the destination holds the data when it returns.
type Transfer interface {
	// CanCopy reports whether this transfer moves data from src to dst.
	CanCopy(src, dst tensor.Location) bool

	// Copy copies all elements of src into dst. Both buffers must have the
	// same dtype and length.
	Copy(src, dst *tensor.Buffer) error
}

// Manager finds a Transfer for a pair of locations.
// Registration is expected at setup; lookups are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	transfers []Transfer
}

// NewManager returns a manager with the given transfers registered in order.
func NewManager(transfers ...Transfer) *Manager {
	return &Manager{transfers: append([]Transfer(nil), transfers...)}
}

// Register adds a transfer. Earlier registrations win when several match.
func (m *Manager) Register(t Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, t)
}

// Find returns the first transfer able to copy from src to dst.
func (m *Manager) Find(src, dst tensor.Location) (Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transfers {
		if t.CanCopy(src, dst) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: from %s to %s", tensor.ErrNoTransferPath, src, dst)
}

// CopyBuffer copies src into dst through a registered transfer.
func (m *Manager) CopyBuffer(src, dst *tensor.Buffer) error {
	if err := checkCopy(src, dst); err != nil {
		return err
	}
	t, err := m.Find(src.Location(), dst.Location())
	if err != nil {
		return err
	}
	return t.Copy(src, dst)
}

// CopyDense copies the elements of src into dst. Shapes must match.
func (m *Manager) CopyDense(src, dst *tensor.Dense) error {
	if !src.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("copy dense: %w: shape %v into %v", tensor.ErrSizeMismatch, src.Shape(), dst.Shape())
	}
	return m.CopyBuffer(src.Buffer(), dst.Buffer())
}

// CopySparse copies values and index arrays of src into dst.
// dst must have the same format and buffers of matching lengths.
func (m *Manager) CopySparse(src, dst *tensor.Sparse) error {
	if src.Format() != dst.Format() {
		return fmt.Errorf("copy sparse: %w: %s into %s", tensor.ErrUnsupportedFormat, src.Format(), dst.Format())
	}
	pairs := [][2]*tensor.Buffer{{src.Values(), dst.Values()}}
	switch src.Format() {
	case tensor.COO:
		pairs = append(pairs, [2]*tensor.Buffer{src.Indices(), dst.Indices()})
	case tensor.CSR:
		pairs = append(pairs,
			[2]*tensor.Buffer{src.Inner(), dst.Inner()},
			[2]*tensor.Buffer{src.Outer(), dst.Outer()})
	}
	for _, p := range pairs {
		if p[0].Len() == 0 && p[1].Len() == 0 {
			continue
		}
		if err := m.CopyBuffer(p[0], p[1]); err != nil {
			return fmt.Errorf("copy sparse: %w", err)
		}
	}
	return nil
}

func checkCopy(src, dst *tensor.Buffer) error {
	if src.DType() != dst.DType() || src.Len() != dst.Len() {
		return fmt.Errorf("%w: %d %s elements into %d %s elements",
			tensor.ErrSizeMismatch, src.Len(), src.DType(), dst.Len(), dst.DType())
	}
	return nil
}

// HostTransfer copies between host-addressable locations.
type HostTransfer struct{}

// CanCopy implements Transfer.
func (HostTransfer) CanCopy(src, dst tensor.Location) bool {
	return src.HostAddressable() && dst.HostAddressable()
}

// Copy implements Transfer.
func (HostTransfer) Copy(src, dst *tensor.Buffer) error {
	if err := checkCopy(src, dst); err != nil {
		return err
	}
	if src.DType().IsString() {
		copy(dst.Strings(), src.Strings())
		return nil
	}
	copy(dst.Bytes(), src.Bytes())
	return nil
}
