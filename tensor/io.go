// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/sparse/internal/serialization"
)

// Entry is one named tensor in a .spt file. Exactly one of Dense and Sparse is set.
type Entry = serialization.Entry

// FileHeader is the metadata stored at the start of a .spt file.
type FileHeader = serialization.Header

// Errors returned by Save and Load, in addition to checksum and layout
// failures wrapped in *serialization.ValidationError.
var (
	ErrChecksumMismatch = serialization.ErrChecksumMismatch
	ErrInvalidMagic     = serialization.ErrInvalidMagic
	ErrTruncatedFile    = serialization.ErrTruncated
)

// Save writes host tensors to a .spt file at path.
//
// Each tensor keeps its layout: dense tensors store their elements, COO and
// CSR tensors store their values and index buffers. The data section is
// protected by a SHA-256 checksum.
//
// Example:
//
//	err := tensor.Save("features.spt", []tensor.Entry{
//	    {Name: "features", Sparse: csr},
//	}, map[string]string{"source": "crawl-2025-06"})
func Save(path string, entries []Entry, metadata map[string]string) error {
	return serialization.WriteFile(path, entries, metadata)
}

// Load reads every tensor of a .spt file into host memory, verifying the
// checksum and the layout of every tensor. The caller owns the returned
// tensors and should release them with ReleaseEntries.
func Load(path string) ([]Entry, FileHeader, error) {
	return serialization.ReadFile(path, serialization.ReaderOptions{})
}

// ReleaseEntries releases the tensors of every entry.
func ReleaseEntries(entries []Entry) {
	serialization.ReleaseAll(entries)
}
