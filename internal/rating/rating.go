// Package rating implements the Elo-style desirability rating that reactions
// move up and down.
package rating

import (
	"math"

	"github.com/oggyb/muzz-match/internal/db"
)

// K is the Elo K-factor.
const K = 32

// Expected is the Elo expectation of subject "winning" against actor.
func Expected(subject, actor int) float64 {
	return 1 / (1 + math.Pow(10, float64(actor-subject)/400))
}

// Update returns the subject's new rating after actor reacted to them.
// A like scores 1, a dislike 0. Pure and deterministic.
func Update(subject, actor int, reaction db.ReactionType) int {
	actual := 0.0
	if reaction == db.ReactionLike {
		actual = 1
	}
	return int(math.Round(float64(subject) + K*(actual-Expected(subject, actor))))
}
