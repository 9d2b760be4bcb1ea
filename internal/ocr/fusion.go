package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fusion weights.
const (
	countWeight      = 0.3
	confidenceWeight = 0.7
	patternBonus     = 0.2
)

// Prior carries class-specific expectations used when fusing observations.
type Prior struct {
	ExpectedLengths []int          // preferred digit counts, in priority order
	Pattern         *regexp.Regexp // full-string pattern that earns a bonus
	Decimal         bool           // single-digit crop; selects heavier magnification
}

var (
	// RoomPrior describes room identifiers.
	RoomPrior = Prior{ExpectedLengths: []int{3, 4}, Pattern: regexp.MustCompile(`^\d{3,4}$`)}
	// MeterPrior describes the integer part of a meter reading.
	MeterPrior = Prior{ExpectedLengths: []int{4, 5, 6, 7}, Pattern: regexp.MustCompile(`^\d{4,7}$`)}
	// DecimalPrior describes the single decimal digit of a meter reading.
	DecimalPrior = Prior{ExpectedLengths: []int{1}, Pattern: regexp.MustCompile(`^\d{1}$`), Decimal: true}
)

// Selection is the fused reading for one region.
type Selection struct {
	Text       string
	Confidence float64
	Method     string
}

// CleanDigits normalizes compatibility forms (full-width digits and the like)
// and keeps only ASCII digits.
func CleanDigits(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type candidate struct {
	text       string
	confidence float64
	method     string
}

type tally struct {
	text    string
	count   int
	maxConf float64
	method  string
}

// Select fuses observations into one reading by weighted vote. Candidates are
// grouped by digit count; the first expected length present wins, else the
// largest group (earliest on ties). Within the group each distinct string scores
// 0.3*count + 0.7*max confidence, plus 0.2 when it matches the pattern. The first
// string to reach the top score wins. Reports false when nothing usable remains.
func Select(observations []Observation, prior Prior) (Selection, bool) {
	if len(observations) == 0 {
		return Selection{}, false
	}

	groups := map[int][]candidate{}
	var lengthOrder []int
	for _, o := range observations {
		cleaned := CleanDigits(o.Text)
		if cleaned == "" {
			continue
		}
		n := len(cleaned)
		if _, ok := groups[n]; !ok {
			lengthOrder = append(lengthOrder, n)
		}
		groups[n] = append(groups[n], candidate{text: cleaned, confidence: o.Confidence, method: o.Source})
	}

	if len(groups) > 0 {
		if s, ok := vote(groups[preferredLength(groups, lengthOrder, prior.ExpectedLengths)], prior.Pattern); ok {
			return s, true
		}
	}

	return fallback(observations)
}

func preferredLength(groups map[int][]candidate, order, expected []int) int {
	for _, n := range expected {
		if _, ok := groups[n]; ok {
			return n
		}
	}
	best := order[0]
	for _, n := range order[1:] {
		if len(groups[n]) > len(groups[best]) {
			best = n
		}
	}
	return best
}

func vote(candidates []candidate, pattern *regexp.Regexp) (Selection, bool) {
	var order []*tally
	byText := map[string]*tally{}
	for _, c := range candidates {
		t, ok := byText[c.text]
		if !ok {
			t = &tally{text: c.text, method: c.method}
			byText[c.text] = t
			order = append(order, t)
		}
		t.count++
		t.maxConf = max(t.maxConf, c.confidence)
	}

	var best *tally
	bestScore := 0.0
	for _, t := range order {
		score := countWeight*float64(t.count) + confidenceWeight*t.maxConf
		if pattern != nil && pattern.MatchString(t.text) {
			score += patternBonus
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	if best == nil {
		return Selection{}, false
	}
	return Selection{Text: best.text, Confidence: best.maxConf, Method: best.method}, true
}

// fallback takes the single most confident raw observation, digits only.
func fallback(observations []Observation) (Selection, bool) {
	top := observations[0]
	for _, o := range observations[1:] {
		if o.Confidence > top.Confidence {
			top = o
		}
	}
	cleaned := CleanDigits(top.Text)
	if cleaned == "" {
		return Selection{}, false
	}
	return Selection{Text: cleaned, Confidence: top.Confidence, Method: top.Source}, true
}
