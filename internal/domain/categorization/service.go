package categorization

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
)

// fuzzyMatchThreshold is deliberately high. The keyword engine already
// catches every verbatim occurrence, so the fuzzy layer only needs to pick
// up close misspellings, mostly in short hand-typed descriptions.
const fuzzyMatchThreshold = 60

// Service categorizes transaction descriptions against the user's rules
// and the merchant table. Matchers are built once per user and kept until
// the user's rules change.
type Service struct {
	repo   *Repository
	logger *slog.Logger

	mu      sync.RWMutex
	engines map[uuid.UUID]*engineSet
}

// engineSet bundles the per-user matchers built from one snapshot of the
// user's rules and merchants.
type engineSet struct {
	engine *Engine
	fuzzy  *FuzzyMatcher
	search *SearchIndex
}

// NewService creates a categorization service.
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		engines: make(map[uuid.UUID]*engineSet),
	}
}

// Categorize enriches a single raw description. It fails open: on any
// lookup error the description comes back cleaned but uncategorized.
func (s *Service) Categorize(ctx context.Context, userID uuid.UUID, description string) (*CategorizationResult, error) {
	result := &CategorizationResult{CleanMerchantName: cleanDescription(description)}

	set, err := s.enginesFor(ctx, userID)
	if err != nil {
		s.logger.Warn("categorization lookup failed, leaving description unmatched",
			"user_id", userID, "error", err)
		return result, nil
	}

	if m := set.engine.Match(description); m != nil {
		result.applyEngine(m)
		return result, nil
	}
	if fm := set.fuzzy.Match(description, fuzzyMatchThreshold); fm != nil {
		result.applyFuzzy(fm)
	}

	return result, nil
}

// CategorizeBatch enriches a whole statement's descriptions in one pass.
// The result slice is parallel to the input and never contains nils.
func (s *Service) CategorizeBatch(ctx context.Context, userID uuid.UUID, descriptions []string) ([]*CategorizationResult, error) {
	results := make([]*CategorizationResult, len(descriptions))
	for i, desc := range descriptions {
		results[i] = &CategorizationResult{CleanMerchantName: cleanDescription(desc)}
	}

	set, err := s.enginesFor(ctx, userID)
	if err != nil {
		s.logger.Warn("categorization lookup failed, leaving batch unmatched",
			"user_id", userID, "count", len(descriptions), "error", err)
		return results, nil
	}

	matches := set.engine.MatchBatch(descriptions)
	for i, desc := range descriptions {
		if matches[i] != nil {
			results[i].applyEngine(matches[i])
			continue
		}
		if fm := set.fuzzy.Match(desc, fuzzyMatchThreshold); fm != nil {
			results[i].applyFuzzy(fm)
		}
	}

	return results, nil
}

// CreateRule creates a rule and optionally backfills matching ledger rows.
// Returns the rule and how many existing transactions were updated.
func (s *Service) CreateRule(ctx context.Context, userID uuid.UUID, pattern, cleanName, category string, isRecurring, applyToExisting bool) (*CategoryRule, int64, error) {
	existing, err := s.repo.FindRuleByPattern(ctx, userID, pattern)
	if err != nil {
		return nil, 0, err
	}
	if existing != nil {
		return existing, 0, nil
	}

	if category == "" {
		category = "Uncategorized"
	}

	rule := &CategoryRule{
		UserID:       userID,
		MatchPattern: pattern,
		CleanName:    &cleanName,
		Category:     category,
		IsRecurring:  isRecurring,
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, 0, err
	}

	s.invalidate(userID)

	var updated int64
	if applyToExisting {
		updated, err = s.repo.UpdateTransactionsMerchant(ctx, userID, pattern, cleanName, category)
		if err != nil {
			// The rule exists either way; the backfill can be retried.
			s.logger.Warn("rule backfill failed", "user_id", userID, "pattern", pattern, "error", err)
			return rule, 0, nil
		}
	}

	return rule, updated, nil
}

// DeleteRule removes a rule and drops the user's cached matchers.
func (s *Service) DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	if err := s.repo.DeleteRule(ctx, userID, ruleID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// GetUserRules lists the user's rules, highest priority first.
func (s *Service) GetUserRules(ctx context.Context, userID uuid.UUID) ([]CategoryRule, error) {
	return s.repo.GetUserRules(ctx, userID)
}

// SearchRules runs a typo-tolerant search over the user's rules and the
// merchant table, for the rule editor.
func (s *Service) SearchRules(ctx context.Context, userID uuid.UUID, query string, limit int) ([]SearchResult, error) {
	set, err := s.enginesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return set.search.Search(query, limit)
}

// enginesFor returns the user's cached matcher set, building it on first use.
func (s *Service) enginesFor(ctx context.Context, userID uuid.UUID) (*engineSet, error) {
	s.mu.RLock()
	if set, ok := s.engines[userID]; ok {
		s.mu.RUnlock()
		return set, nil
	}
	s.mu.RUnlock()

	rules, err := s.repo.GetUserRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	merchants, err := s.repo.GetMerchants(ctx, &userID)
	if err != nil {
		return nil, err
	}

	search, err := NewSearchIndex("")
	if err != nil {
		return nil, err
	}
	if err := search.IndexRulesAndMerchants(rules, merchants); err != nil {
		_ = search.Close()
		return nil, err
	}

	set := &engineSet{
		engine: NewEngine(rules, merchants),
		fuzzy:  NewFuzzyMatcher(rules, merchants),
		search: search,
	}

	s.mu.Lock()
	if existing, ok := s.engines[userID]; ok {
		// Lost a concurrent build; keep the winner.
		s.mu.Unlock()
		_ = search.Close()
		return existing, nil
	}
	s.engines[userID] = set
	s.mu.Unlock()

	return set, nil
}

func (s *Service) invalidate(userID uuid.UUID) {
	s.mu.Lock()
	set, ok := s.engines[userID]
	delete(s.engines, userID)
	s.mu.Unlock()

	if ok {
		_ = set.search.Close()
	}
}

func (r *CategorizationResult) applyEngine(m *MatchResult) {
	if m.CleanName != "" {
		r.CleanMerchantName = m.CleanName
	}
	r.Category = m.Category
	r.IsRecurring = m.IsRecurring
	r.RuleID = m.RuleID
	r.MerchantID = m.MerchantID
}

func (r *CategorizationResult) applyFuzzy(m *FuzzyMatchResult) {
	if m.CleanName != "" {
		r.CleanMerchantName = m.CleanName
	}
	r.Category = m.Category
	r.RuleID = m.RuleID
	r.MerchantID = m.MerchantID
}

// cleanDescription does the last-resort cleanup when nothing matched:
// strip card-rail prefixes and trailing reference numbers, then title case.
func cleanDescription(desc string) string {
	prefixes := []string{
		"CARD PURCHASE ",
		"POS PURCHASE ",
		"DEBIT CARD ",
		"PURCHASE ",
		"POS ",
		"ΑΓΟΡΑ ",
		"ΠΛΗΡΩΜΗ ",
	}

	cleaned := strings.TrimSpace(desc)
	upper := strings.ToUpper(cleaned)

	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}

	// Trailing reference markers like "*1234".
	if idx := strings.LastIndex(cleaned, "*"); idx > 0 {
		potentialRef := cleaned[idx+1:]
		if len(potentialRef) <= 6 && isNumeric(potentialRef) {
			cleaned = strings.TrimSpace(cleaned[:idx])
		}
	}

	return toTitleCase(cleaned)
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// toTitleCase is rune aware; statement text mixes Greek and Latin and
// byte indexing would corrupt the Greek.
func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}
