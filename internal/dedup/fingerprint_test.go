package dedup

import "testing"

func TestNormalizeText(t *testing.T) {
	tokens := NormalizeText("Breaking: The U.S. Market Rallies!", false)
	want := []string{"breaking", "the", "u", "s", "market", "rallies"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
}

func TestNormalizeTextStripsStopWords(t *testing.T) {
	full := NormalizeText("the quick brown fox and the lazy dog", false)
	stripped := NormalizeText("the quick brown fox and the lazy dog", true)
	if len(stripped) >= len(full) {
		t.Errorf("stripping should remove tokens: %d vs %d", len(stripped), len(full))
	}
	for _, tok := range stripped {
		if tok == "the" || tok == "and" {
			t.Errorf("stop word %q survived stripping", tok)
		}
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Market rallies on rate cut hopes", "Stocks rose sharply today.", true)
	b := Fingerprint("Market rallies on rate cut hopes", "Stocks rose sharply today.", true)
	if a != b {
		t.Errorf("same input produced different fingerprints: %x vs %x", a, b)
	}
	if a == 0 {
		t.Error("non-empty text should not fingerprint to zero")
	}
}

func TestFingerprintSimilarTexts(t *testing.T) {
	a := Fingerprint("Central bank cuts interest rates by quarter point", "", true)
	b := Fingerprint("Central bank cuts interest rates by a quarter point", "", true)
	c := Fingerprint("Local team wins championship game in overtime", "", true)

	simAB := Similarity(a, b)
	simAC := Similarity(a, c)

	if simAB <= simAC {
		t.Errorf("near-duplicate (%f) should score above unrelated (%f)", simAB, simAC)
	}
	if simAB < 0.85 {
		t.Errorf("near-duplicate should score high, got %f", simAB)
	}
}

func TestSimilarityBounds(t *testing.T) {
	if sim := Similarity(0xDEADBEEF, 0xDEADBEEF); sim != 1.0 {
		t.Errorf("identical fingerprints should score 1.0, got %f", sim)
	}
	if sim := Similarity(0, ^uint64(0)); sim != 0.0 {
		t.Errorf("complementary fingerprints should score 0.0, got %f", sim)
	}
}

func TestHammingDistance(t *testing.T) {
	if d := HammingDistance(0b1010, 0b1010); d != 0 {
		t.Errorf("expected distance 0, got %d", d)
	}
	if d := HammingDistance(0b1010, 0b0101); d != 4 {
		t.Errorf("expected distance 4, got %d", d)
	}
}

func TestFingerprintShortText(t *testing.T) {
	// Fewer than three words falls back to single-word hashing.
	if fp := Fingerprint("Breaking", "", false); fp == 0 {
		t.Error("single word should still fingerprint")
	}
	if fp := Fingerprint("", "", false); fp != 0 {
		t.Errorf("empty text should fingerprint to zero, got %x", fp)
	}
}
