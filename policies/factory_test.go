package policies

import (
	"errors"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	for _, alg := range AllAlgorithms() {
		got, err := ParseAlgorithm(alg.String())
		if err != nil || got != alg {
			t.Fatalf("%s: got %v, %v", alg, got, err)
		}
		got, err = ParseAlgorithm(alg.Label())
		if err != nil || got != alg {
			t.Fatalf("label %q: got %v, %v", alg.Label(), got, err)
		}
	}
	if _, err := ParseAlgorithm("monte-carlo"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestAlgorithmText(t *testing.T) {
	bs, err := DynaQ.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	var alg Algorithm
	if err := alg.UnmarshalText(bs); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if alg != DynaQ {
		t.Fatalf("expected dyna-q, got %v", alg)
	}
}

func TestNewUnknownAlgorithm(t *testing.T) {
	if _, err := New(Algorithm(99), DefaultConfig()); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
	if _, ok := NewPolicyConstructor(Algorithm(99), DefaultConfig()).NewPolicy().(*RandomPolicy); !ok {
		t.Fatal("constructor should fall back to the random policy")
	}
}
