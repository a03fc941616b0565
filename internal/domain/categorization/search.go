package categorization

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchDocument is one searchable rule or merchant entry.
type SearchDocument struct {
	ID          string  `json:"id"`
	Pattern     string  `json:"pattern"`     // original pattern, exact matching
	CleanName   string  `json:"clean_name"`  // display name
	Description string  `json:"description"` // full text for search
	Category    string  `json:"category"`    // category name
	Type        string  `json:"type"`        // "rule" or "merchant"
	Priority    float64 `json:"priority"`    // for boosting results
	UserID      string  `json:"user_id"`     // owner, empty for system entries
}

// SearchResult is a search hit with its relevance score.
type SearchResult struct {
	Document SearchDocument
	Score    float64
	Category string
	IsRule   bool
}

// SearchIndex is a Bleve full-text index over rules and merchants. It backs
// the rule editor: typo-tolerant lookup of what already matches a merchant.
type SearchIndex struct {
	index   bleve.Index
	indexMu sync.RWMutex
	path    string // empty for in-memory
}

// NewSearchIndex creates a search index. An empty path means in-memory;
// otherwise the index is created at or reopened from that path.
func NewSearchIndex(path string) (*SearchIndex, error) {
	si := &SearchIndex{path: path}

	var index bleve.Index
	var err error

	indexMapping := buildIndexMapping()

	if path == "" {
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
				return nil, fmt.Errorf("failed to create index directory: %w", mkdirErr)
			}
			index, err = bleve.New(path, indexMapping)
		} else {
			index, err = bleve.Open(path)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	si.index = index
	return si, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	// Keyword fields are stored verbatim for exact term lookups.
	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	numericFieldMapping := bleve.NewNumericFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("pattern", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("clean_name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("type", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("priority", numericFieldMapping)
	docMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name

	return indexMapping
}

// IndexRulesAndMerchants indexes the full rule and merchant sets in one batch.
func (si *SearchIndex) IndexRulesAndMerchants(rules []CategoryRule, merchants []Merchant) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	batch := si.index.NewBatch()

	for _, rule := range rules {
		cleanName := ""
		if rule.CleanName != nil {
			cleanName = *rule.CleanName
		}

		doc := SearchDocument{
			ID:          fmt.Sprintf("rule_%s", rule.ID.String()),
			Pattern:     rule.MatchPattern,
			CleanName:   cleanName,
			Description: fmt.Sprintf("%s %s", rule.MatchPattern, cleanName),
			Category:    rule.Category,
			Type:        "rule",
			Priority:    float64(rule.Priority + 1000),
			UserID:      rule.UserID.String(),
		}

		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index rule %s: %w", rule.ID, err)
		}
	}

	for _, merchant := range merchants {
		userID := ""
		if merchant.UserID != nil {
			userID = merchant.UserID.String()
		}

		priority := 0.0
		if merchant.UserID != nil {
			priority = 100.0
		}

		doc := SearchDocument{
			ID:          fmt.Sprintf("merchant_%s", merchant.ID.String()),
			Pattern:     merchant.RawPattern,
			CleanName:   merchant.CleanName,
			Description: fmt.Sprintf("%s %s", merchant.RawPattern, merchant.CleanName),
			Category:    merchant.DefaultCategory,
			Type:        "merchant",
			Priority:    priority,
			UserID:      userID,
		}

		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to index merchant %s: %w", merchant.ID, err)
		}
	}

	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}

	return nil
}

// Search runs a match query with light typo tolerance.
func (si *SearchIndex) Search(query string, limit int) ([]SearchResult, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return si.convertResults(searchResults)
}

// SearchWithPrefix runs an autocomplete-style prefix query.
func (si *SearchIndex) SearchWithPrefix(prefix string, limit int) ([]SearchResult, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	prefixQuery := bleve.NewPrefixQuery(prefix)

	searchRequest := bleve.NewSearchRequest(prefixQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("prefix search failed: %w", err)
	}

	return si.convertResults(searchResults)
}

// SearchFuzzy runs a fuzzy query with a configurable edit distance (0-2).
func (si *SearchIndex) SearchFuzzy(query string, fuzziness int, limit int) ([]SearchResult, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	if fuzziness < 0 {
		fuzziness = 0
	}
	if fuzziness > 2 {
		fuzziness = 2 // bleve maximum
	}

	fuzzyQuery := bleve.NewFuzzyQuery(query)
	fuzzyQuery.SetFuzziness(fuzziness)

	searchRequest := bleve.NewSearchRequest(fuzzyQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search failed: %w", err)
	}

	return si.convertResults(searchResults)
}

// SearchAdvanced accepts bleve query string syntax, e.g. "coffee -airport".
func (si *SearchIndex) SearchAdvanced(queryString string, limit int) ([]SearchResult, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	query := bleve.NewQueryStringQuery(queryString)

	searchRequest := bleve.NewSearchRequest(query)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("advanced search failed: %w", err)
	}

	return si.convertResults(searchResults)
}

// SearchByCategory lists every rule and merchant assigned to a category.
func (si *SearchIndex) SearchByCategory(category string, limit int) ([]SearchResult, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	termQuery := bleve.NewTermQuery(category)
	termQuery.SetField("category")

	searchRequest := bleve.NewSearchRequest(termQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("category search failed: %w", err)
	}

	return si.convertResults(searchResults)
}

func (si *SearchIndex) convertResults(searchResults *bleve.SearchResult) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(searchResults.Hits))

	for _, hit := range searchResults.Hits {
		doc := SearchDocument{
			ID: hit.ID,
		}

		if pattern, ok := hit.Fields["pattern"].(string); ok {
			doc.Pattern = pattern
		}
		if cleanName, ok := hit.Fields["clean_name"].(string); ok {
			doc.CleanName = cleanName
		}
		if description, ok := hit.Fields["description"].(string); ok {
			doc.Description = description
		}
		if category, ok := hit.Fields["category"].(string); ok {
			doc.Category = category
		}
		if docType, ok := hit.Fields["type"].(string); ok {
			doc.Type = docType
		}
		if priority, ok := hit.Fields["priority"].(float64); ok {
			doc.Priority = priority
		}
		if userID, ok := hit.Fields["user_id"].(string); ok {
			doc.UserID = userID
		}

		results = append(results, SearchResult{
			Document: doc,
			Score:    hit.Score,
			Category: doc.Category,
			IsRule:   doc.Type == "rule",
		})
	}

	return results, nil
}

// Clear removes every document from the index.
func (si *SearchIndex) Clear() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	query := bleve.NewMatchAllQuery()
	searchRequest := bleve.NewSearchRequest(query)
	searchRequest.Size = 10000

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	batch := si.index.NewBatch()
	for _, hit := range searchResults.Hits {
		batch.Delete(hit.ID)
	}

	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}

// Close closes the underlying index.
func (si *SearchIndex) Close() error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	if si.index != nil {
		return si.index.Close()
	}
	return nil
}

// DocumentCount returns the number of indexed documents.
func (si *SearchIndex) DocumentCount() (uint64, error) {
	si.indexMu.RLock()
	defer si.indexMu.RUnlock()

	return si.index.DocCount()
}

// IndexDocument adds or updates a single document.
func (si *SearchIndex) IndexDocument(doc SearchDocument) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	return si.index.Index(doc.ID, doc)
}

// DeleteDocument removes a document by id.
func (si *SearchIndex) DeleteDocument(id string) error {
	si.indexMu.Lock()
	defer si.indexMu.Unlock()

	return si.index.Delete(id)
}
