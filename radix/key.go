package radix

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key is a byte-slice key representation. Use the provided constructors
// to build Keys from primitive types or normalized strings.
//
// Integer encoding policy
// -----------------------
// All integer constructors produce an 8-byte big-endian representation
// (most-significant byte first), with an offset of 1<<63 added before
// encoding, so that lexicographic byte-wise comparison of Keys matches
// numeric order for signed values and for unsigned values below 1<<63;
// unsigned values from 1<<63 up wrap and sort before 0. This
// encoding is what spec.md's KEY_SORTINT option calls a conditional
// byte-swap over for: because every integer constructor here always
// produces an order-preserving big-endian layout (rather than
// reinterpreting the machine's native in-memory representation), no
// runtime byte-swap is needed on little-endian targets, see DESIGN.md.
type Key []byte

// FromBytes returns a copy of b as a Key. A nil b yields an empty (not
// nil) Key.
func FromBytes(b []byte) Key {
	if b == nil {
		return []byte{}
	}
	kb := make([]byte, len(b))
	copy(kb, b)
	return Key(kb)
}

// FromString returns a Key from s after normalizing it to Unicode NFC.
func FromString(s string) Key {
	s = norm.NFC.String(s)
	return FromBytes([]byte(s))
}

const int64Offset = uint64(1) << 63

// FromInt64 converts an int64 to an order-preserving 8-byte Key.
func FromInt64(i int64) Key {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i)+int64Offset)
	return FromBytes(b[:])
}

// FromInt converts an int to an order-preserving 8-byte Key.
func FromInt(i int) Key { return FromInt64(int64(i)) }

// FromInt32 converts an int32 to an order-preserving 8-byte Key.
func FromInt32(i int32) Key { return FromInt64(int64(i)) }

// FromInt16 converts an int16 to an order-preserving 8-byte Key.
func FromInt16(i int16) Key { return FromInt64(int64(i)) }

// FromInt8 converts an int8 to an order-preserving 8-byte Key.
func FromInt8(i int8) Key { return FromInt64(int64(i)) }

// FromUint64 converts a uint64 to an 8-byte Key. Order is preserved for
// values below 1<<63; larger values wrap and sort before 0.
func FromUint64(u uint64) Key {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], u+int64Offset)
	return FromBytes(b[:])
}

// FromUint converts a uint to an order-preserving 8-byte Key.
func FromUint(u uint) Key { return FromUint64(uint64(u)) }

// FromUint32 converts a uint32 to an order-preserving 8-byte Key.
func FromUint32(u uint32) Key { return FromUint64(uint64(u)) }

// FromUint16 converts a uint16 to an order-preserving 8-byte Key.
func FromUint16(u uint16) Key { return FromUint64(uint64(u)) }

// FromUint8 converts a uint8 to an order-preserving 8-byte Key.
func FromUint8(u uint8) Key { return FromUint64(uint64(u)) }

// FromByte is an alias for FromUint8.
func FromByte(b byte) Key { return FromUint8(b) }

// FromRune converts a rune to its UTF-8 encoding as a Key.
func FromRune(r rune) Key {
	var buf [4]byte
	n := utf8EncodeRune(buf[:], r)
	return FromBytes(buf[:n])
}

func utf8EncodeRune(buf []byte, r rune) int {
	switch {
	case r <= 0x7F:
		buf[0] = byte(r)
		return 1
	case r <= 0x7FF:
		buf[0] = 0xC0 | byte(r>>6)
		buf[1] = 0x80 | byte(r)&0x3F
		return 2
	case r <= 0xFFFF:
		buf[0] = 0xE0 | byte(r>>12)
		buf[1] = 0x80 | byte(r>>6)&0x3F
		buf[2] = 0x80 | byte(r)&0x3F
		return 3
	default:
		buf[0] = 0xF0 | byte(r>>18)
		buf[1] = 0x80 | byte(r>>12)&0x3F
		buf[2] = 0x80 | byte(r>>6)&0x3F
		buf[3] = 0x80 | byte(r)&0x3F
		return 4
	}
}

// Bytes returns a copy of the Key's contents.
func (k Key) Bytes() []byte {
	if k == nil {
		return nil
	}
	b := make([]byte, len(k))
	copy(b, k)
	return b
}

// Clone returns an independent copy of k.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	return append(Key(nil), k...)
}

// String renders k as uppercase hex byte tuples, e.g. "[01,AB,00]".
func (k Key) String() string {
	if len(k) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	const hex = "0123456789ABCDEF"
	for i, b := range k {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte(hex[b>>4])
		sb.WriteByte(hex[b&0x0F])
	}
	sb.WriteByte(']')
	return sb.String()
}

// Equal reports whether k and other hold the same bytes.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// LessThan reports whether k sorts before other byte-lexicographically.
func (k Key) LessThan(other Key) bool {
	for i := 0; i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}

// LessThanOrEqual reports whether k sorts at or before other.
func (k Key) LessThanOrEqual(other Key) bool {
	return k.LessThan(other) || k.Equal(other)
}

// IsEmpty reports whether k is empty or nil.
func (k Key) IsEmpty() bool { return len(k) == 0 }

// append appends other's bytes to k in place.
func (k *Key) append(other Key) {
	*k = append(*k, other...)
}

// LongestCommonPrefix returns the length of the longest common prefix of a
// and b. The tree itself does not call it; its prefix matching uses
// prefixFindFirstDiff.
func LongestCommonPrefix(a, b Key) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
