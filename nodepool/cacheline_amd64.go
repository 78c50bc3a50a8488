//go:build amd64

package nodepool

// CacheLineSize is the L1 cache line size assumed for x86-64 targets.
const CacheLineSize = 64
