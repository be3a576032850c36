package sentiment

import "testing"

func TestScoreCommentPolarity(t *testing.T) {
	pos := ScoreComment("This is great news, really impressive work")
	if pos.Score <= 0 {
		t.Errorf("positive text should score above 0, got %f", pos.Score)
	}

	neg := ScoreComment("Terrible decision, this is a complete disaster")
	if neg.Score >= 0 {
		t.Errorf("negative text should score below 0, got %f", neg.Score)
	}
}

func TestScoreCommentBounds(t *testing.T) {
	texts := []string{
		"amazing excellent fantastic brilliant awesome",
		"terrible awful horrible garbage trash scam",
		"extremely amazing and absolutely fantastic",
		"",
		"neutral text with no opinion words whatsoever",
	}
	for _, text := range texts {
		cs := ScoreComment(text)
		if cs.Score < -1 || cs.Score > 1 {
			t.Errorf("score out of bounds for %q: %f", text, cs.Score)
		}
		if cs.Confidence < 0 || cs.Confidence > 1 {
			t.Errorf("confidence out of bounds for %q: %f", text, cs.Confidence)
		}
	}
}

func TestScoreCommentNegation(t *testing.T) {
	plain := ScoreComment("this is good")
	negated := ScoreComment("this is not good")
	if plain.Score <= 0 {
		t.Fatalf("baseline should be positive, got %f", plain.Score)
	}
	if negated.Score >= 0 {
		t.Errorf("negation should flip the sign, got %f", negated.Score)
	}
}

func TestScoreCommentContraction(t *testing.T) {
	cs := ScoreComment("I don't like this at all")
	if cs.Score >= 0 {
		t.Errorf("contraction negation should flip the sign, got %f", cs.Score)
	}
}

func TestScoreCommentIntensifier(t *testing.T) {
	plain := ScoreComment("good")
	boosted := ScoreComment("extremely good")
	if boosted.Score <= plain.Score {
		t.Errorf("intensifier should raise magnitude: %f vs %f", boosted.Score, plain.Score)
	}
}

func TestScoreCommentNoLexiconHits(t *testing.T) {
	cs := ScoreComment("the quarterly report covers fiscal procedures")
	if cs.Score != 0 {
		t.Errorf("text with no lexicon hits should score 0, got %f", cs.Score)
	}
	if cs.Confidence != 0 {
		t.Errorf("text with no lexicon hits should have 0 confidence, got %f", cs.Confidence)
	}
}

func TestScoreCommentConfidenceTracksCoverage(t *testing.T) {
	dense := ScoreComment("great amazing excellent")
	sparse := ScoreComment("the meeting was rescheduled to thursday afternoon which was great")
	if dense.Confidence <= sparse.Confidence {
		t.Errorf("dense lexicon coverage should mean higher confidence: %f vs %f", dense.Confidence, sparse.Confidence)
	}
}
