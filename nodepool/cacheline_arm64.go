//go:build arm64

package nodepool

// CacheLineSize is the L1 cache line size assumed for arm64 targets.
const CacheLineSize = 64
