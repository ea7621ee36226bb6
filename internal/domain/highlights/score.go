package highlights

import (
	"math"
	"regexp"
	"strings"
)

var (
	reNum   = regexp.MustCompile(`\b\d+(?:[\.,]\d+)?\b`)
	reHook  = regexp.MustCompile(`(?i)\b(secret|mistake|never|always|insane|wait|truth|why|reveal|shocking|best|worst)\b`)
	reHow   = regexp.MustCompile(`(?i)\b(how\s+to|step\s+\d+|tips?|hacks?|do\s+this)\b`)
	reEmoji = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`)
)

// baseVirality is what a clip with no hook signal scores.
const baseVirality = 50

// EstimateVirality scores a clip 0..100 from its wording when the model
// leaves viralityScore out.
func EstimateVirality(title, summary string, keywords []string) int {
	text := strings.TrimSpace(title + " " + summary)
	if text == "" && len(keywords) == 0 {
		return baseVirality
	}

	hook := float64(len(reHook.FindAllStringIndex(text, -1))) * 8
	hook += float64(strings.Count(text, "?")) * 5
	hook += float64(strings.Count(text, "!")) * 3
	hook += float64(len(reEmoji.FindAllStringIndex(title, -1))) * 2

	info := float64(len(reNum.FindAllStringIndex(text, -1))) * 3
	if reHow.MatchString(text) {
		info += 6
	}
	info += math.Min(float64(len(keywords)), 5)

	// long titles read poorly on short-form feeds
	penalty := math.Max(0, float64(len([]rune(title))-60)) * 0.3

	return int(math.Round(clamp(baseVirality+hook+info-penalty, 0, 100)))
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
