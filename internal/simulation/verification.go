package simulation

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

// ErrInsufficientData is returned when fewer than two competitors have both
// a true skill and an inferred rating.
var ErrInsufficientData = errors.New("insufficient paired data")

// Report summarizes how well inferred ratings recover the ground truth.
type Report struct {
	Competitors int
	// Correlation is the Pearson correlation between true skill and
	// inferred conservative rating.
	Correlation float64
	// MedianTrue and MedianInferred locate the two scales; the conservative
	// rating sits below the true skill by construction.
	MedianTrue     float64
	MedianInferred float64
}

// Verify pairs true skills with inferred ratings and measures agreement.
// Competitors missing from either map are ignored.
func Verify(trueSkills, inferred map[string]float64) (Report, error) {
	var truth, guess []float64
	for id, skill := range trueSkills {
		rating, ok := inferred[id]
		if !ok {
			continue
		}
		truth = append(truth, skill)
		guess = append(guess, rating)
	}
	if len(truth) < 2 {
		return Report{}, fmt.Errorf("%w: %d paired competitors", ErrInsufficientData, len(truth))
	}

	corr, err := stats.Pearson(truth, guess)
	if err != nil {
		return Report{}, fmt.Errorf("correlation: %w", err)
	}
	medTrue, err := stats.Median(truth)
	if err != nil {
		return Report{}, fmt.Errorf("median true: %w", err)
	}
	medGuess, err := stats.Median(guess)
	if err != nil {
		return Report{}, fmt.Errorf("median inferred: %w", err)
	}

	return Report{
		Competitors:    len(truth),
		Correlation:    corr,
		MedianTrue:     medTrue,
		MedianInferred: medGuess,
	}, nil
}
