package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/drachma-app/drachma-api/internal/domain/categorization"
	importservice "github.com/drachma-app/drachma-api/internal/domain/import/service"
)

// categorizationAdapter bridges categorization.Service into the import
// pipeline's CategorizationService interface.
type categorizationAdapter struct {
	svc *categorization.Service
}

func newCategorizationAdapter(svc *categorization.Service) importservice.CategorizationService {
	return &categorizationAdapter{svc: svc}
}

// CategorizeBatch maps matched results onto the importer's enrichment
// shape. Unmatched descriptions stay zero so the importer's built-in
// sanitizer supplies the display name.
func (a *categorizationAdapter) CategorizeBatch(ctx context.Context, userID uuid.UUID, descriptions []string) ([]importservice.Enrichment, error) {
	results, err := a.svc.CategorizeBatch(ctx, userID, descriptions)
	if err != nil {
		return nil, err
	}

	enrichments := make([]importservice.Enrichment, len(results))
	for i, r := range results {
		if r.RuleID == nil && r.MerchantID == nil {
			continue
		}
		enrichments[i] = importservice.Enrichment{
			MerchantName: r.CleanMerchantName,
			Category:     r.Category,
		}
	}
	return enrichments, nil
}
