package script

import "strings"

// MinSeconds is the shortest clip a scene can ask for
const MinSeconds = 2

// Estimator converts narration length into a target clip duration
type Estimator struct {
	MinSeconds int
}

// Seconds returns floor(words / (wpm/60)), clamped to the estimator minimum.
// A non-positive rate yields the minimum.
func (e Estimator) Seconds(text string, wpm int) int {
	floor := e.MinSeconds
	if floor <= 0 {
		floor = MinSeconds
	}
	if wpm <= 0 {
		return floor
	}

	words := len(strings.Fields(text))
	wordsPerSecond := float64(wpm) / 60.0
	seconds := int(float64(words) / wordsPerSecond)
	return max(seconds, floor)
}

// EstimateSeconds uses the default minimum of two seconds
func EstimateSeconds(text string, wpm int) int {
	return Estimator{MinSeconds: MinSeconds}.Seconds(text, wpm)
}
