package sentiment

// Weighted lexicon used by the comment scorer. Weights live in [-1, 1];
// stronger words carry larger magnitudes. Matching is lowercase whole-token.
var lexicon = map[string]float64{
	// positive
	"good":        0.5,
	"great":       0.7,
	"excellent":   0.9,
	"amazing":     0.9,
	"awesome":     0.8,
	"love":        0.8,
	"loved":       0.8,
	"like":        0.4,
	"best":        0.7,
	"better":      0.4,
	"impressive":  0.7,
	"brilliant":   0.8,
	"fantastic":   0.9,
	"helpful":     0.5,
	"useful":      0.5,
	"win":         0.5,
	"wins":        0.5,
	"winning":     0.5,
	"success":     0.6,
	"successful":  0.6,
	"promising":   0.5,
	"solid":       0.4,
	"happy":       0.6,
	"glad":        0.5,
	"hope":        0.3,
	"hopeful":     0.4,
	"agree":       0.4,
	"right":       0.3,
	"correct":     0.4,
	"interesting": 0.3,
	"smart":       0.5,
	"clever":      0.5,
	"beautiful":   0.6,
	"fast":        0.3,
	"improved":    0.5,
	"improvement": 0.5,
	"benefit":     0.4,
	"safe":        0.3,
	"secure":      0.3,
	"reliable":    0.5,
	"recommend":   0.6,

	// negative
	"bad":          -0.5,
	"terrible":     -0.9,
	"awful":        -0.9,
	"horrible":     -0.9,
	"worst":        -0.8,
	"worse":        -0.5,
	"hate":         -0.8,
	"hated":        -0.8,
	"dislike":      -0.5,
	"broken":       -0.6,
	"buggy":        -0.6,
	"fail":         -0.6,
	"fails":        -0.6,
	"failed":       -0.6,
	"failure":      -0.7,
	"useless":      -0.7,
	"garbage":      -0.8,
	"trash":        -0.8,
	"scam":         -0.9,
	"fraud":        -0.9,
	"wrong":        -0.4,
	"disappointing": -0.6,
	"disappointed":  -0.6,
	"sad":          -0.5,
	"angry":        -0.6,
	"annoying":     -0.5,
	"stupid":       -0.6,
	"dumb":         -0.6,
	"slow":         -0.3,
	"expensive":    -0.3,
	"dangerous":    -0.6,
	"unsafe":       -0.6,
	"problem":      -0.4,
	"problems":     -0.4,
	"issue":        -0.3,
	"issues":       -0.3,
	"concern":      -0.3,
	"concerning":   -0.5,
	"worried":      -0.5,
	"worry":        -0.4,
	"risk":         -0.3,
	"risky":        -0.4,
	"avoid":        -0.4,
	"disaster":     -0.8,
	"mess":         -0.5,
	"overhyped":    -0.5,
	"misleading":   -0.6,
}

// intensifiers scale the weight of the word that follows them.
var intensifiers = map[string]float64{
	"very":       1.5,
	"really":     1.4,
	"extremely":  1.8,
	"incredibly": 1.7,
	"absolutely": 1.6,
	"totally":    1.4,
	"so":         1.3,
	"quite":      1.2,
	"somewhat":   0.7,
	"slightly":   0.5,
	"barely":     0.4,
}

// negations flip the sign of a lexicon hit when they appear within the two
// tokens preceding it.
var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"nobody":  true,
	"nothing": true,
	"neither": true,
	"nor":     true,
	"cannot":  true,
	"cant":    true,
	"dont":    true,
	"doesnt":  true,
	"didnt":   true,
	"wont":    true,
	"isnt":    true,
	"arent":   true,
	"wasnt":   true,
	"werent":  true,
	"without": true,
	"hardly":  true,
}
