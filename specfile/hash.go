package specfile

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// This file reimplements the boost::hash (>= 1.81) container-hash algorithm
// SpecUtils uses to derive a deterministic pseudo-UUID from a SpecFile's
// content (spec.md section 4.6 / 9). The constants and mix functions are
// fixed by that contract; this is a from-scratch Go port of the documented
// algorithm (not a transliteration of the C++), grounded by reading
// _examples/original_source/3rdparty/code_from_boost/hash/hash.hpp.

const (
	hashQ uint64 = 0x9e3779b97f4a7c15
	hashK uint64 = 0xdf442d22ce4859b9 // q * q
	mix64Const uint64 = (uint64(0xe9846af) << 32) + 0x9b1a615d
)

// mulx is boost's portable 64x64-bit "multiply, then XOR the two halves"
// mixing primitive.
func mulx(x, y uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	return lo ^ hi
}

// hashMix64 is boost's 64-bit avalanche mixer (hash_detail::hash_mix for
// sizeof(T)==8).
func hashMix64(x uint64) uint64 {
	x ^= x >> 32
	x *= mix64Const
	x ^= x >> 32
	x *= mix64Const
	x ^= x >> 28
	return x
}

func read64le(p []byte) uint64 { return binary.LittleEndian.Uint64(p) }
func read32le(p []byte) uint32 { return binary.LittleEndian.Uint32(p) }

// hashRange is boost's hash_range(seed, first, last) specialized to a byte
// range (boost_hash::hash_value(std::string) calls this directly).
func hashRange(seed uint64, data []byte) uint64 {
	n := len(data)
	p := 0

	w := mulx(seed+hashQ, hashK)
	h := w ^ uint64(n)

	for n >= 8 {
		v1 := read64le(data[p : p+8])
		w += hashQ
		h ^= mulx(v1+w, hashK)
		p += 8
		n -= 8
	}

	{
		var v1 uint64
		if n >= 4 {
			v1 = uint64(read32le(data[p+n-4:p+n])) << (uint(n-4) * 8)
			v1 |= uint64(read32le(data[p : p+4]))
		} else if n >= 1 {
			x1 := (n - 1) & 2
			x2 := n >> 1
			v1 = uint64(data[p+x1])<<(uint(x1)*8) |
				uint64(data[p+x2])<<(uint(x2)*8) |
				uint64(data[p])
		}
		w += hashQ
		h ^= mulx(v1+w, hashK)
	}

	return mulx(h+w, hashK)
}

// hashBytes is boost_hash::hash_value(const std::string&): hash_range with
// seed 0.
func hashBytes(data []byte) uint64 { return hashRange(0, data) }

// hashString hashes a Go string the same way.
func hashString(s string) uint64 { return hashBytes([]byte(s)) }

// hashFloat64 is boost_hash::hash_value(double): reinterpret the bits (with
// "+0" to fold -0.0 into 0.0) and feed them through the 64-bit integer path.
func hashFloat64(v float64) uint64 {
	return hashUint64(math.Float64bits(v + 0))
}

// hashUint64 is boost_hash::hash_value for a 64-bit unsigned integral type:
// the sizeof(T)==8, is_unsigned hash_integral_impl specialization degenerates
// to identity when size_t is itself 64 bits, which this port always targets.
func hashUint64(v uint64) uint64 { return v }

// hashInt is boost_hash::hash_value(int): sign-extend through the unsigned
// path, matching hash_integral_impl<T,false,...>'s signed-integer branch.
func hashInt(v int64) uint64 {
	if v >= 0 {
		return hashUint64(uint64(v))
	}
	return ^hashUint64(uint64(^v))
}

// hashCombine is boost_hash::hash_combine(seed, v): mix seed with the
// 0x9e3779b9 Fibonacci constant and the value's own hash.
func hashCombine(seed uint64, valueHash uint64) uint64 {
	return hashMix64(seed + 0x9e3779b9 + valueHash)
}

// structuralHasher accumulates a SpecFile's content hash the way
// cleanup_after_load derives the pseudo-UUID: combine file-level fields,
// then each Measurement's counts/calibration, in a fixed, order-dependent
// sequence so identical content always yields the same 64-bit seed.
type structuralHasher struct {
	seed uint64
}

func (h *structuralHasher) combineString(s string) { h.seed = hashCombine(h.seed, hashString(s)) }
func (h *structuralHasher) combineInt(v int64)      { h.seed = hashCombine(h.seed, hashInt(v)) }
func (h *structuralHasher) combineFloat(v float64)  { h.seed = hashCombine(h.seed, hashFloat64(v)) }
func (h *structuralHasher) combineFloats(vs []float64) {
	for _, v := range vs {
		h.combineFloat(v)
	}
}
