package categorization

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FuzzyMatchResult is a fuzzy match with its similarity score.
type FuzzyMatchResult struct {
	Pattern    string
	CleanName  string
	Category   string
	Score      int // 0-100, higher is closer
	Distance   int // Levenshtein distance in runes
	Priority   int
	IsRule     bool
	RuleID     *uuid.UUID
	MerchantID *uuid.UUID
}

// FuzzyMatcher scores descriptions against patterns by edit distance.
// The keyword engine already catches every verbatim occurrence; this layer
// exists for misspellings, mostly in short hand-typed entries.
type FuzzyMatcher struct {
	patterns []fuzzyPattern
	mu       sync.RWMutex
}

type fuzzyPattern struct {
	normalized string
	cleanName  string
	category   string
	ruleID     *uuid.UUID
	merchantID *uuid.UUID
	isRule     bool
	priority   int
}

// NewFuzzyMatcher builds a fuzzy matcher from rules and merchants.
func NewFuzzyMatcher(rules []CategoryRule, merchants []Merchant) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(rules, merchants)
	return fm
}

// Build rebuilds the pattern set. Uses the same priority scheme as the
// keyword engine: rules above user merchants above system merchants.
func (fm *FuzzyMatcher) Build(rules []CategoryRule, merchants []Merchant) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	totalPatterns := len(rules) + len(merchants)
	fm.patterns = make([]fuzzyPattern, 0, totalPatterns)

	for _, rule := range rules {
		cleanPattern := strings.ToUpper(strings.Trim(rule.MatchPattern, "%"))
		if cleanPattern == "" {
			continue
		}

		cleanName := ""
		if rule.CleanName != nil {
			cleanName = *rule.CleanName
		}

		ruleID := rule.ID
		fm.patterns = append(fm.patterns, fuzzyPattern{
			normalized: cleanPattern,
			cleanName:  cleanName,
			category:   rule.Category,
			ruleID:     &ruleID,
			isRule:     true,
			priority:   rule.Priority + 1000,
		})
	}

	for _, merchant := range merchants {
		cleanPattern := strings.ToUpper(strings.Trim(merchant.RawPattern, "%"))
		if cleanPattern == "" {
			continue
		}

		priority := 0
		if merchant.UserID != nil {
			priority = 100
		}

		merchantID := merchant.ID
		fm.patterns = append(fm.patterns, fuzzyPattern{
			normalized: cleanPattern,
			cleanName:  merchant.CleanName,
			category:   merchant.DefaultCategory,
			merchantID: &merchantID,
			isRule:     false,
			priority:   priority,
		})
	}
}

func (p fuzzyPattern) result(score, distance int) FuzzyMatchResult {
	return FuzzyMatchResult{
		Pattern:    p.normalized,
		CleanName:  p.cleanName,
		Category:   p.category,
		Score:      score,
		Distance:   distance,
		Priority:   p.priority,
		IsRule:     p.isRule,
		RuleID:     p.ruleID,
		MerchantID: p.merchantID,
	}
}

// Match returns the best match scoring at or above the threshold, or nil.
// Ties on score go to the higher-priority pattern.
func (fm *FuzzyMatcher) Match(description string, threshold int) *FuzzyMatchResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 {
		return nil
	}

	normalized := strings.ToUpper(description)

	var bestMatch *FuzzyMatchResult
	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		if score < threshold {
			continue
		}
		if bestMatch == nil || score > bestMatch.Score ||
			(score == bestMatch.Score && p.priority > bestMatch.Priority) {
			result := p.result(score, levenshteinDistance(normalized, p.normalized))
			bestMatch = &result
		}
	}

	return bestMatch
}

// MatchAll returns every match at or above the threshold, best first.
func (fm *FuzzyMatcher) MatchAll(description string, threshold int) []FuzzyMatchResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 {
		return nil
	}

	normalized := strings.ToUpper(description)
	var results []FuzzyMatchResult

	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		if score >= threshold {
			results = append(results, p.result(score, levenshteinDistance(normalized, p.normalized)))
		}
	}

	sortByScore(results)
	return results
}

// FindSimilarMerchants groups descriptions that score above the threshold
// against each other, for consolidating variations like "WOLT ATHENS 001"
// vs "WOLT ATHENS 002". The first member of each group is its canonical key.
func (fm *FuzzyMatcher) FindSimilarMerchants(descriptions []string, threshold int) map[string][]string {
	groups := make(map[string][]string)
	assigned := make(map[int]bool)

	for i, desc := range descriptions {
		if assigned[i] {
			continue
		}

		canonical := desc
		group := []string{desc}
		assigned[i] = true

		for j := i + 1; j < len(descriptions); j++ {
			if assigned[j] {
				continue
			}

			score := fuzzyScore(strings.ToUpper(desc), strings.ToUpper(descriptions[j]))
			if score >= threshold {
				group = append(group, descriptions[j])
				assigned[j] = true
			}
		}

		groups[canonical] = group
	}

	return groups
}

// RankMatches scores the description against every pattern and returns the
// top matches regardless of threshold.
func (fm *FuzzyMatcher) RankMatches(description string, limit int) []FuzzyMatchResult {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.patterns) == 0 {
		return nil
	}

	normalized := strings.ToUpper(description)
	results := make([]FuzzyMatchResult, 0, len(fm.patterns))

	for _, p := range fm.patterns {
		score := fuzzyScore(normalized, p.normalized)
		results = append(results, p.result(score, levenshteinDistance(normalized, p.normalized)))
	}

	sortByScore(results)

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	return results
}

// PatternCount returns the number of patterns loaded.
func (fm *FuzzyMatcher) PatternCount() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.patterns)
}

func sortByScore(results []FuzzyMatchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Priority > results[j].Priority
	})
}

// fuzzyScore rates the similarity of two uppercased strings from 0 to 100.
// Lengths are counted in runes; statement text mixes Greek and Latin and
// byte counts would skew every Greek score.
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	len1 := len([]rune(s1))
	len2 := len([]rune(s2))

	// Containment is the common case for statement text: the pattern
	// appears inside a longer description or vice versa.
	if strings.Contains(s1, s2) {
		return 75 + (25 * len2 / len1)
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len1 / len2)
	}

	maxLen := max(len1, len2)
	if maxLen == 0 {
		return 0
	}

	distance := levenshteinDistance(s1, s2)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	// RankMatch reports the edit distance when s2 appears as a
	// subsequence of s1, and -1 otherwise. Capped at 60 so a loose
	// subsequence never beats a genuinely close string.
	fuzzyLibScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len1 {
		fuzzyLibScore = 60 - (rank * 40 / len1)
	}

	return max(levenshteinScore, fuzzyLibScore)
}

// levenshteinDistance is the rune edit distance, computed with two rows
// instead of the full matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for j := 0; j <= len(r2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
