package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"
)

// MatchResult is a single pattern hit with everything needed to enrich a
// transaction: the display name, the category and where the match came from.
type MatchResult struct {
	Pattern     string
	CleanName   string
	Category    string
	IsRecurring bool
	RuleID      *uuid.UUID
	MerchantID  *uuid.UUID
	Priority    int
	IsRule      bool
}

// Engine matches thousands of merchant patterns in a single pass over the
// description using Aho-Corasick. Matching cost grows with the text length,
// not with the pattern count, so loading every rule and system merchant at
// once is fine.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	metadata [][]MatchResult
	mu       sync.RWMutex
}

// NewEngine builds an engine from rules and merchants.
func NewEngine(rules []CategoryRule, merchants []Merchant) *Engine {
	e := &Engine{}
	e.Build(rules, merchants)
	return e
}

// Build rebuilds the matcher from scratch. Rules and merchants sharing a
// pattern end up in one metadata group; priority decides which one wins.
func (e *Engine) Build(rules []CategoryRule, merchants []Merchant) {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalPatterns := len(rules) + len(merchants)
	if totalPatterns == 0 {
		e.matcher = nil
		e.patterns = nil
		e.metadata = nil
		return
	}

	patternToIndex := make(map[string]int)
	patterns := make([]string, 0, totalPatterns)
	metadata := make([][]MatchResult, 0, totalPatterns)

	addPattern := func(cleanPattern string, result MatchResult) {
		if idx, exists := patternToIndex[cleanPattern]; exists {
			metadata[idx] = append(metadata[idx], result)
		} else {
			patternToIndex[cleanPattern] = len(patterns)
			patterns = append(patterns, cleanPattern)
			metadata = append(metadata, []MatchResult{result})
		}
	}

	for _, rule := range rules {
		// Rule patterns arrive as SQL LIKE shapes ('%WOLT%'); strip the
		// wildcards and uppercase so matching is case-insensitive.
		cleanPattern := strings.ToUpper(strings.Trim(rule.MatchPattern, "%"))
		if cleanPattern == "" {
			continue
		}

		cleanName := ""
		if rule.CleanName != nil {
			cleanName = *rule.CleanName
		}

		ruleID := rule.ID
		addPattern(cleanPattern, MatchResult{
			Pattern:     rule.MatchPattern,
			CleanName:   cleanName,
			Category:    rule.Category,
			IsRecurring: rule.IsRecurring,
			RuleID:      &ruleID,
			// Rules always rank above merchants, whatever their own priority.
			Priority: rule.Priority + 1000,
			IsRule:   true,
		})
	}

	for _, merchant := range merchants {
		cleanPattern := strings.ToUpper(strings.Trim(merchant.RawPattern, "%"))
		if cleanPattern == "" {
			continue
		}

		// A user's own merchants rank above the shipped system set.
		priority := 0
		if merchant.UserID != nil {
			priority = 100
		}

		merchantID := merchant.ID
		addPattern(cleanPattern, MatchResult{
			Pattern:    merchant.RawPattern,
			CleanName:  merchant.CleanName,
			Category:   merchant.DefaultCategory,
			MerchantID: &merchantID,
			Priority:   priority,
			IsRule:     false,
		})
	}

	e.patterns = patterns
	e.metadata = metadata

	if len(patterns) > 0 {
		bytePatterns := make([][]byte, len(patterns))
		for i, p := range patterns {
			bytePatterns[i] = []byte(p)
		}
		e.matcher = ahocorasick.NewMatcher(bytePatterns)
	} else {
		e.matcher = nil
	}
}

// Match returns the highest-priority match in the description, or nil.
func (e *Engine) Match(description string) *MatchResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil || len(e.patterns) == 0 {
		return nil
	}

	normalizedInput := strings.ToUpper(description)

	matches := e.matcher.Match([]byte(normalizedInput))
	if len(matches) == 0 {
		return nil
	}

	var bestMatch *MatchResult
	for _, idx := range matches {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		for i := range e.metadata[idx] {
			match := &e.metadata[idx][i]
			if bestMatch == nil || match.Priority > bestMatch.Priority {
				matchCopy := *match
				bestMatch = &matchCopy
			}
		}
	}

	return bestMatch
}

// MatchAll returns every match in the description, highest priority first.
func (e *Engine) MatchAll(description string) []MatchResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil || len(e.patterns) == 0 {
		return nil
	}

	normalizedInput := strings.ToUpper(description)
	matches := e.matcher.Match([]byte(normalizedInput))
	if len(matches) == 0 {
		return nil
	}

	results := make([]MatchResult, 0, len(matches)*2)
	for _, idx := range matches {
		if idx >= 0 && idx < len(e.metadata) {
			results = append(results, e.metadata[idx]...)
		}
	}

	// Insertion sort; match lists are tiny.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Priority > results[j-1].Priority; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}

	return results
}

// MatchBatch matches a whole statement's descriptions under one lock.
// The result slice is parallel to the input; unmatched entries are nil.
func (e *Engine) MatchBatch(descriptions []string) []*MatchResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]*MatchResult, len(descriptions))

	if e.matcher == nil || len(e.patterns) == 0 {
		return results
	}

	for i, desc := range descriptions {
		normalizedInput := strings.ToUpper(desc)
		matches := e.matcher.Match([]byte(normalizedInput))

		if len(matches) == 0 {
			continue
		}

		var bestMatch *MatchResult
		for _, idx := range matches {
			if idx < 0 || idx >= len(e.metadata) {
				continue
			}
			for j := range e.metadata[idx] {
				match := &e.metadata[idx][j]
				if bestMatch == nil || match.Priority > bestMatch.Priority {
					matchCopy := *match
					bestMatch = &matchCopy
				}
			}
		}

		results[i] = bestMatch
	}

	return results
}

// PatternCount returns the number of distinct patterns loaded.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}

// IsEmpty reports whether the engine has no patterns.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matcher == nil || len(e.patterns) == 0
}
