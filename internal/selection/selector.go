package selection

import (
	"math/rand"
	"sort"

	"practice-service/internal/models"
)

// Apply orders a deck's questions and trims them to the configured count.
// Questions come back in their fixed order unless the config asks for a
// shuffle; the count limit is applied after ordering so a randomized session
// draws a random subset.
func Apply(questions []models.Question, config models.SessionConfig) []models.Question {
	out := make([]models.Question, len(questions))
	copy(out, questions)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})

	if config.Randomize {
		rand.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}

	if config.QuestionCount > 0 && config.QuestionCount < len(out) {
		out = out[:config.QuestionCount]
	}
	return out
}
