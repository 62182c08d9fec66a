// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

// Contents is a block payload handed up the read path, together with the
// ownership and format facts a cache needs.
//
// Cachable is true only when Data is a heap allocation owned by the
// receiver. Blocks served out of a caller-provided scratch buffer, or
// borrowed from a Readable's internal buffer, are not cachable: their
// backing memory is reused by the next read.
type Contents struct {
	Data        []byte
	Cachable    bool
	Compression CompressionIndicator
}

// IsCompressed reports whether the contents still need decompression before
// they can be interpreted.
func (c Contents) IsCompressed() bool {
	return c.Compression != NoCompressionIndicator
}
