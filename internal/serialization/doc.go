// Package serialization stores dense and sparse tensors in .spt files.
//
// A file holds any number of named tensors, each in its own layout:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00  Magic "BSPT"
//	    0x04  Version (uint32 LE)
//	    0x08  Flags (uint32 LE)
//	    0x10  Header size (uint64 LE)
//	    0x18  Data size (uint64 LE)
//	    0x20  SHA-256 of the data section (32 bytes)
//	  [Header: JSON metadata]
//	  [Padding to a 64-byte boundary]
//	  [Data: the buffers of every tensor, back to back]
//
// Every tensor lists its buffers by role: "data" for dense tensors, "values"
// and "indices" for COO, "values", "inner" and "outer" for CSR. Numeric
// buffers are stored as raw little-endian elements. String buffers store each
// element as a uvarint length followed by its bytes.
//
// Reading validates the checksum and, depending on the ValidationLevel, the
// tensor names and buffer regions. Sparse index contents are not checked
// here; every conversion validates its input before use.
//
// Example usage:
//
//	if err := serialization.WriteFile("m.spt", []serialization.Entry{{Name: "w", Sparse: csr}}, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	entries, header, err := serialization.ReadFile("m.spt", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer serialization.ReleaseAll(entries)
package serialization
