//go:build !amd64 && !arm64

package nodepool

// CacheLineSize is the default L1 cache line size assumed for other
// 64-bit architectures.
const CacheLineSize = 64
