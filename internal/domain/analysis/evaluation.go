package analysis

import (
	"strconv"
	"strings"
)

// DefaultScoreMarker opens the score line of an evaluation.
const DefaultScoreMarker = "评分"

// Evaluation is a parsed coaching evaluation ready to persist as a rating.
type Evaluation struct {
	Score     int
	Narrative string
}

var markdownStripper = strings.NewReplacer("*", "", "#", "", "-", "")

// ParseEvaluation extracts the score line and the narrative from free text.
// The last valid score line wins; score lines never reach the narrative.
func ParseEvaluation(text, marker string) (Evaluation, error) {
	if marker == "" {
		marker = DefaultScoreMarker
	}

	var (
		ev    Evaluation
		found bool
		body  []string
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(markdownStripper.Replace(raw))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, marker) {
			if n, ok := leadingInt(strings.TrimLeft(line[len(marker):], " \t:：")); ok {
				ev.Score = n
				found = true
			}
			continue
		}
		body = append(body, line)
	}
	if !found {
		return Evaluation{}, ErrScoreMissing
	}
	ev.Narrative = strings.Join(body, "\n")
	return ev, nil
}

func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
