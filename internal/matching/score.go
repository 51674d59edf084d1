package matching

import (
	"math"
	"time"

	"github.com/oggyb/muzz-match/internal/db"
)

const (
	earthRadiusKm = 6371.0

	locationWeight = 0.6
	ageWeight      = 0.4
	// distance at which the location sub-score reaches 0
	locationRangeKm = 50.0
	// age gap at which the age sub-score reaches 0
	ageRangeYears = 10.0

	similarityWeight = 0.6
	ratingWeight     = 0.4
	ratingFloor      = 1000.0
	ratingWindow     = 800.0
)

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// LocationScore maps a distance to [0,1], linear down to 0 at 50km.
func LocationScore(distanceKm float64) float64 {
	return math.Max(0, 1-distanceKm/locationRangeKm)
}

// AgeScore maps an age gap to [0,1], linear down to 0 at 10 years.
func AgeScore(userAge, candidateAge int) float64 {
	gap := math.Abs(float64(userAge - candidateAge))
	return math.Max(0, 1-gap/ageRangeYears)
}

// RatingScore normalizes a rating onto [0,1]: 1000 -> 0, 1800 -> 1, clamped.
func RatingScore(rating int) float64 {
	return clamp01((float64(rating) - ratingFloor) / ratingWindow)
}

// Similarity is the weighted mean of the sub-scores that apply to user.
// The age sub-score only applies when user declared no age window; its weight
// is then dropped and the rest renormalized.
func Similarity(user, candidate *db.User, now time.Time) float64 {
	type part struct{ weight, score float64 }

	parts := []part{{
		weight: locationWeight,
		score: LocationScore(Haversine(
			user.Latitude, user.Longitude,
			candidate.Latitude, candidate.Longitude,
		)),
	}}
	if !user.HasAgeWindow() {
		parts = append(parts, part{weight: ageWeight, score: AgeScore(user.Age(now), candidate.Age(now))})
	}

	var sum, weights float64
	for _, p := range parts {
		sum += p.weight * p.score
		weights += p.weight
	}
	if weights == 0 {
		return 0
	}
	return round2(sum / weights)
}

// Score is the total score of candidate for user, in [0,1].
func Score(user, candidate *db.User, now time.Time) float64 {
	similarity := Similarity(user, candidate, now)
	return round2(similarityWeight*similarity + ratingWeight*RatingScore(candidate.Rating))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
