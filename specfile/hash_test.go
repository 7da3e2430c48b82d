package specfile

import (
	"math"
	"testing"
)

func TestHashConstants(t *testing.T) {
	if hashK != hashQ*hashQ {
		t.Errorf("hashK must equal hashQ*hashQ per boost's hash_range contract")
	}
}

func TestHashBytesDeterministic(t *testing.T) {
	a := hashBytes([]byte("hello world"))
	b := hashBytes([]byte("hello world"))
	if a != b {
		t.Errorf("hashBytes not deterministic: %x != %x", a, b)
	}
}

func TestHashBytesDistinguishesInput(t *testing.T) {
	a := hashBytes([]byte("hello"))
	b := hashBytes([]byte("world"))
	if a == b {
		t.Errorf("distinct inputs hashed to the same value")
	}
}

func TestHashBytesAllLengths(t *testing.T) {
	// Exercise every tail branch in hashRange (0..8 trailing bytes plus a
	// multi-chunk case).
	seen := map[uint64]bool{}
	for n := 0; n <= 20; n++ {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(i*7 + 3)
		}
		h := hashBytes(buf)
		if seen[h] && n > 0 {
			// collisions are possible but vanishingly unlikely for this
			// small, structured input set; flag if it ever happens.
			t.Logf("collision at length %d", n)
		}
		seen[h] = true
	}
}

func TestHashFloatNegativeZeroFoldsToZero(t *testing.T) {
	if hashFloat64(0.0) != hashFloat64(math.Copysign(0, -1)) {
		t.Errorf("hashFloat64(0.0) != hashFloat64(-0.0); boost folds -0 into 0")
	}
}

func TestHashIntSignedRoundTrips(t *testing.T) {
	if hashInt(5) == hashInt(-5) {
		t.Errorf("hashInt(5) should differ from hashInt(-5)")
	}
	if hashInt(0) != hashUint64(0) {
		t.Errorf("hashInt(0) should match the unsigned path")
	}
}

func TestStructuralHasherOrderSensitive(t *testing.T) {
	h1 := &structuralHasher{}
	h1.combineString("a")
	h1.combineString("b")

	h2 := &structuralHasher{}
	h2.combineString("b")
	h2.combineString("a")

	if h1.seed == h2.seed {
		t.Errorf("structuralHasher should be order-sensitive")
	}
}

func TestStructuralHasherDeterministic(t *testing.T) {
	build := func() uint64 {
		h := &structuralHasher{}
		h.combineString("file.n42")
		h.combineInt(3)
		h.combineFloat(12.5)
		h.combineFloats([]float64{1, 2, 3})
		return h.seed
	}
	if build() != build() {
		t.Errorf("structuralHasher not deterministic across identical input sequences")
	}
}
