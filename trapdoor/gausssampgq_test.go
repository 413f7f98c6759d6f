package trapdoor

import (
	"testing"

	"github.com/sinitcin/rnscore/gaussian"
	"github.com/sinitcin/rnscore/sampling"
)

func TestGaussSampGqSatisfiesSyndrome(t *testing.T) {
	const (
		q      = uint64(257)
		base   = int64(2)
		k      = 9
		stddev = 4.57
	)
	syndrome := []uint64{0, 1, 100, 256, 37}

	src := sampling.NewSeededSource([]byte("gauss-samp-gq-seed"))
	dgg := gaussian.NewGenerator(src, stddev, 6)

	Z, err := GaussSampGq(syndrome, stddev, k, q, base, dgg)
	if err != nil {
		t.Fatalf("GaussSampGq: %v", err)
	}
	if len(Z) != k {
		t.Fatalf("expected %d rows, got %d", k, len(Z))
	}

	bPow := make([]int64, k)
	bPow[0] = 1
	for i := 1; i < k; i++ {
		bPow[i] = bPow[i-1] * base
	}

	for j, u := range syndrome {
		var sum int64
		for t := 0; t < k; t++ {
			sum += bPow[t] * Z[t][j]
		}
		got := sum % int64(q)
		if got < 0 {
			got += int64(q)
		}
		if uint64(got) != u {
			t.Fatalf("slot %d: G.Z = %d mod %d, want %d", j, got, q, u)
		}
	}
}

func TestRequiredDigitsRoundTrip(t *testing.T) {
	digits, err := RequiredDigits(257, 2, 9)
	if err != nil {
		t.Fatalf("RequiredDigits: %v", err)
	}
	want := []int64{1, 0, 0, 0, 0, 0, 0, 0, 1}
	if len(digits) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(digits), len(want))
	}
	for i := range want {
		if digits[i] != want[i] {
			t.Fatalf("digit %d: got %d, want %d", i, digits[i], want[i])
		}
	}
}

func TestRequiredDigitsNonTerminating(t *testing.T) {
	if _, err := RequiredDigits(257, 2, 8); err == nil {
		t.Fatalf("expected ErrNonTerminating for a too-small digit budget")
	}
}
