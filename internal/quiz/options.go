package quiz

import (
	"math/rand"

	"carpet-quiz-service/internal/domain"
)

// DefaultOptionCount is how many multiple-choice options a question shows.
const DefaultOptionCount = 4

// Options assembles the multiple-choice set for an item's primary question:
// the correct label exactly once plus up to n-1 distinct wrong labels drawn
// uniformly without replacement from the catalog, shuffled so the correct
// answer is not locatable by position. When fewer alternatives exist the set
// is short; labels are never fabricated or duplicated.
func Options(item domain.QuizItem, catalog domain.Catalog, n int, rnd *rand.Rand) []string {
	if n < 1 {
		n = DefaultOptionCount
	}

	wrong := make([]string, 0, catalog.Len())
	for _, label := range catalog.Labels() {
		if label != item.PrimaryLabel {
			wrong = append(wrong, label)
		}
	}
	rnd.Shuffle(len(wrong), func(i, j int) {
		wrong[i], wrong[j] = wrong[j], wrong[i]
	})
	if len(wrong) > n-1 {
		wrong = wrong[:n-1]
	}

	options := append(wrong, item.PrimaryLabel)
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// TypeOptions returns the secondary-step choices: the full closed area
// vocabulary, which contains any item's correct type exactly once.
func TypeOptions() []string {
	options := make([]string, len(domain.AreaTypes))
	copy(options, domain.AreaTypes)
	return options
}
