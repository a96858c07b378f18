package scoring

import "math/rand/v2"

// RandomizeTeams shuffles ids with an unbiased Fisher-Yates pass and splits
// the result into two equal halves. The input slice is not modified.
//
// rng may be nil, in which case the package-level source is used.
func RandomizeTeams[T any](ids []T, rng *rand.Rand) ([]T, []T, error) {
	if len(ids)%2 != 0 {
		return nil, nil, newInvalidInput("cannot split %d players into two equal teams", len(ids))
	}

	shuffled := append([]T(nil), ids...)
	for i := len(shuffled) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	half := len(shuffled) / 2
	return shuffled[:half:half], shuffled[half:], nil
}
