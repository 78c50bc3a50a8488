// Package mccconfig centralizes the generation-time configuration options
// that parameterize the generic container skin described by spec.md §6.
// The original C library selects these with preprocessor defines at
// generation time, producing one specialized container per instantiation;
// this module reproduces that with Go generics instead: one generic
// implementation (radix.Tree[K, V]), monomorphized per type parameter
// pair, with these Options controlling runtime behavior that the C
// preprocessor would otherwise have baked in at compile time.
package mccconfig

// MMMode selects the backing-storage strategy for a container (MM_MODE).
type MMMode uint8

const (
	// MMCompact walks the tree and frees node-by-node on Clear/Delete.
	MMCompact MMMode = iota
	// MMStatic is accepted as a configuration value; radix.Tree handles it
	// exactly like MMCompact.
	MMStatic
	// MMPerformance hands every mini-buddy node back to the node pool in
	// one pass on Clear/Delete instead of walking the tree node-by-node.
	MMPerformance
)

func (m MMMode) String() string {
	switch m {
	case MMCompact:
		return "compact"
	case MMStatic:
		return "static"
	case MMPerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// Options holds the generation-time configuration for one radix.Tree[K, V]
// instantiation. Only ToKey must be set; every other zero field selects
// the default: no value-free policy, MMCompact mode, no capacity cap,
// ascending byte-lexicographic iteration order.
type Options[K any, V any] struct {
	// NoValue marks the container as a set (keys only); Insert's value
	// argument is ignored and Find never materializes a value.
	NoValue bool

	// CopyKey, when non-nil, deep-copies a key on insert (COPY_KEY).
	// Unused by radix.Tree: a tree node never retains a K value, only its
	// ToKey byte projection, which is always copied into the node's own
	// storage already. Retained for parity with spec.md's options table.
	CopyKey func(K) K
	// FreeKey, when non-nil, runs on a key when its entry is erased
	// (FREE_KEY). Unused by radix.Tree for the same reason as CopyKey.
	FreeKey func(K)

	// CopyValue, when non-nil, deep-copies a value on insert
	// (COPY_VALUE).
	CopyValue func(V) V
	// FreeValue, when non-nil, runs on a value it is overwritten or the
	// entry holding it is erased (FREE_VALUE).
	FreeValue func(V)

	// ToKey converts a K to its byte-wise key representation (the
	// traversal machinery only ever walks bytes). Required: New panics if
	// it is nil.
	ToKey func(K) []byte

	// KeySortInt marks K as an integer key type (KEY_SORTINT): ToKey is
	// expected to already produce an order-preserving big-endian
	// encoding (see radix.FromInt64 and friends), which is this
	// implementation's replacement for spec.md's runtime byte-swap --
	// the encoding is fixed at construction time instead of being
	// conditionally reinterpreted per platform. See DESIGN.md.
	KeySortInt bool

	// Mode selects the backing-storage strategy (MM_MODE).
	Mode MMMode

	// BlockSize overrides the node pool's per-block size, in every mode
	// (MM_BLOCK_SIZE). Zero selects the package default (32 KiB).
	BlockSize int

	// Capacity is a soft cap on the number of live keys. Zero means
	// unlimited (bounded only by the backing allocator).
	Capacity uint64
}

// DefaultBlockSize is the node pool block size used when Options.BlockSize
// is zero, matching the 32 KiB superblock-block size spec.md mandates for
// the radix tree's dedicated node pool.
const DefaultBlockSize = 32 * 1024
