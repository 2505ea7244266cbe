// Package compress provides compression and decompression codecs for the
// opaque Buffer payloads an archive can carry.
//
// A codec's Serialize method may choose to write a large or already-encoded
// binary blob as a Buffer rather than a sequence of primitives. This package
// applies a second compression stage over that blob, independent of how the
// codec itself encoded the data.
//
// # Overview
//
// The compress package supports multiple algorithms with different
// ratio/speed tradeoffs:
//   - None: No compression (fastest, largest)
//   - Zstd: Excellent compression ratio, moderate speed
//   - S2: Balanced compression and speed
//   - LZ4: Fast decompression, moderate compression
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
// **NoOp Compression** (CompressionNone)
//
//	codec := compress.NewNoOpCompressor()
//	compressed, _ := codec.Compress(data)  // Returns data unchanged
//	original, _ := codec.Decompress(compressed)  // Returns data unchanged
//
// Use when:
//   - The payload is already compressed or encrypted
//   - CPU is more critical than size
//
// **Zstandard (Zstd)** (CompressionZstd)
//
//	codec := compress.NewZstdCompressor()
//	compressed, _ := codec.Compress(data)  // Best compression ratio
//	original, _ := codec.Decompress(compressed)
//
// Characteristics:
//   - Compression: Excellent
//   - Speed: Moderate
//   - Memory: ~2-4 MB for compression, ~1-2 MB for decompression
//
// Best for archival or network-bound payloads.
//
// **S2 (Snappy Alternative)** (CompressionS2)
//
//	codec := compress.NewS2Compressor()
//	compressed, _ := codec.Compress(data)  // Fast with good compression
//	original, _ := codec.Decompress(compressed)
//
// Characteristics:
//   - Compression: Good
//   - Speed: Fast
//   - Memory: ~256KB for compression, ~64KB for decompression
//
// Best for latency-sensitive read/write paths.
//
// **LZ4** (CompressionLZ4)
//
//	codec := compress.NewLZ4Compressor()
//	compressed, _ := codec.Compress(data)  // Very fast decompression
//	original, _ := codec.Decompress(compressed)
//
// Characteristics:
//   - Compression: Moderate
//   - Speed: Very fast decompression, moderate compression
//   - Memory: ~64KB for compression, ~16KB for decompression
//
// Best for decode-heavy workloads.
//
// # Algorithm Selection Guide
//
// | Workload Type          | Recommended | Reason                         |
// |------------------------|-------------|--------------------------------|
// | Storage-constrained    | Zstd        | Best compression ratio         |
// | Write-heavy            | S2          | Balanced speed and compression |
// | Read-heavy             | LZ4         | Fastest decompression          |
// | CPU-constrained        | None        | No compression overhead        |
//
// # Memory Management
//
// The Zstd and LZ4 codecs keep pooled compressor/decompressor state
// (sync.Pool) to minimize allocations; the NoOp and S2 codecs use no pool:
//   - Compression buffers are sized based on input
//   - Buffers are returned to pools after use
//
// # Thread Safety
//
// All codec implementations are safe for concurrent use.
//
// # Error Handling
//
// Decompression errors are more common than compression errors:
//   - Corrupted compressed data
//   - Invalid compression format
//   - Checksum validation failure (algorithm-dependent)
//
// Zstd decompression errors are wrapped with context; the other codecs
// return the underlying library's error as is.
//
// # Integration with the Archive Package
//
// The archive package uses this package internally when a codec asks for
// its Buffer payload to be compressed:
//
//	err := ar.WriteBuffer(data, compress.CompressionZstd)
//
// Readers detect the compression algorithm from the tag preceding the
// buffer payload and select the matching decompressor automatically.
//
// # Advanced Usage
//
// For custom compression needs, implement the Compressor/Decompressor interfaces:
//
//	type MyCodec struct{}
//
//	func (c *MyCodec) Compress(data []byte) ([]byte, error) {
//	    // Custom compression logic
//	    return compressedData, nil
//	}
//
//	func (c *MyCodec) Decompress(data []byte) ([]byte, error) {
//	    // Custom decompression logic
//	    return originalData, nil
//	}
package compress
