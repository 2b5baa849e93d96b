package match

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Scorer reports how similar two strings are, as a value in [0,1].
type Scorer interface {
	Score(a, b string) float64
}

// JaroWinkler scores candidates with the Jaro-Winkler metric. It weighs
// shared prefixes heavily, which is the shape of near-duplicates produced by
// overlapping regex windows over the same sentence.
type JaroWinkler struct {
	metric *metrics.JaroWinkler
}

// NewJaroWinkler creates the production similarity scorer.
func NewJaroWinkler() *JaroWinkler {
	return &JaroWinkler{metric: metrics.NewJaroWinkler()}
}

func (j *JaroWinkler) Score(a, b string) float64 {
	return strutil.Similarity(a, b, j.metric)
}
