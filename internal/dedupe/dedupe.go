// Package dedupe flags likely duplicate restaurant records by comparing
// normalized phone numbers, names, addresses and coordinates. It is used by
// the admin surface to warn before a near-identical listing is created.
package dedupe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/levipshemish/jewgo-api/internal/geo"
	"github.com/levipshemish/jewgo-api/internal/models"
)

// Weights of each signal. They sum to 1.0 so a perfect match scores 1.0.
const (
	phoneWeight     = 0.40
	nameWeight      = 0.35
	addressWeight   = 0.20
	proximityWeight = 0.05

	// proximityKm is the distance under which two venues earn the
	// proximity bonus.
	proximityKm = 0.15
)

// Threshold is the minimum combined score for a candidate to be reported
// as a likely duplicate.
const Threshold = 0.60

// noiseWords are dropped from names before comparison; they are too common
// in this directory to distinguish venues.
var noiseWords = map[string]bool{
	"the":        true,
	"kosher":     true,
	"restaurant": true,
	"grill":      true,
	"cafe":       true,
}

// addressAbbrevs maps common street-suffix abbreviations to their long form
// so "123 Main St" and "123 Main Street" compare equal.
var addressAbbrevs = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"hwy":  "highway",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
}

// Match is one stored restaurant scored against a probe.
type Match struct {
	Restaurant *models.Restaurant `json:"restaurant"`
	Score      float64            `json:"score"`
	Reasons    []string           `json:"reasons"`
}

// CandidateSource supplies stored restaurants to compare a probe against.
// This allows the detector to be independent of the storage implementation.
type CandidateSource interface {
	GetRestaurantsByCity(ctx context.Context, city, state string) ([]*models.Restaurant, error)
}

// Detector finds likely duplicates of a probe restaurant among stored ones.
type Detector struct {
	source CandidateSource
}

// NewDetector creates a detector backed by the given candidate source.
func NewDetector(source CandidateSource) *Detector {
	return &Detector{
		source: source,
	}
}

// FindMatches scores the probe against stored restaurants in the same city
// and returns every candidate at or above Threshold, best match first.
// The probe itself (matched by ID) is skipped.
func (d *Detector) FindMatches(ctx context.Context, probe *models.Restaurant) ([]Match, error) {
	candidates, err := d.source.GetRestaurantsByCity(ctx, probe.City, probe.State)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate candidates: %w", err)
	}

	var matches []Match
	for _, candidate := range candidates {
		if candidate.ID != "" && candidate.ID == probe.ID {
			continue
		}
		score, reasons := Score(probe, candidate)
		if score >= Threshold {
			matches = append(matches, Match{
				Restaurant: candidate,
				Score:      score,
				Reasons:    reasons,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// Score compares two restaurants and returns a similarity in [0, 1] plus
// human-readable reasons for each signal that contributed.
func Score(a, b *models.Restaurant) (float64, []string) {
	var score float64
	var reasons []string

	if phone := NormalizePhone(a.Phone); phone != "" && phone == NormalizePhone(b.Phone) {
		score += phoneWeight
		reasons = append(reasons, "phone number matches")
	}

	if sim := nameSimilarity(a.Name, b.Name); sim > 0 {
		score += nameWeight * sim
		switch {
		case sim >= 0.85:
			reasons = append(reasons, "names are nearly identical")
		case sim >= 0.5:
			reasons = append(reasons, "names are similar")
		}
	}

	if sim := addressSimilarity(a.Address, b.Address); sim > 0 {
		score += addressWeight * sim
		switch {
		case sim >= 0.85:
			reasons = append(reasons, "addresses are nearly identical")
		case sim >= 0.5:
			reasons = append(reasons, "addresses are similar")
		}
	}

	if a.HasLocation() && b.HasLocation() {
		if geo.Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude) <= proximityKm {
			score += proximityWeight
			reasons = append(reasons, "locations are within 150 m")
		}
	}

	if score > 1 {
		score = 1
	}
	return score, reasons
}

// NormalizePhone strips a phone number down to its digits and removes a
// leading US country code. Anything shorter than seven digits is not a
// dialable number and normalizes to empty.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) == 11 && s[0] == '1' {
		s = s[1:]
	}
	if len(s) < 7 {
		return ""
	}
	return s
}

func normalizeName(name string) string {
	words := splitWords(name)
	kept := words[:0]
	for _, w := range words {
		if !noiseWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func normalizeAddress(address string) string {
	words := splitWords(address)
	for i, w := range words {
		if long, ok := addressAbbrevs[w]; ok {
			words[i] = long
		}
	}
	return strings.Join(words, " ")
}

// splitWords lowercases s and splits it on anything that is not a letter
// or digit.
func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func nameSimilarity(a, b string) float64 {
	return textSimilarity(normalizeName(a), normalizeName(b))
}

func addressSimilarity(a, b string) float64 {
	return textSimilarity(normalizeAddress(a), normalizeAddress(b))
}

// textSimilarity blends edit-distance similarity with token overlap and
// keeps whichever is higher. Token overlap rescues reordered words
// ("Main Street Deli" vs "Deli Main Street"); edit distance rescues typos.
func textSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	lev := levenshteinRatio(a, b)
	jac := tokenOverlap(strings.Fields(a), strings.Fields(b))
	if jac > lev {
		return jac
	}
	return lev
}

func levenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with the two-row dynamic programming
// formulation.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// tokenOverlap is the Jaccard index of two token sets.
func tokenOverlap(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
