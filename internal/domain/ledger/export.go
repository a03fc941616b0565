package ledger

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// exportRow is the CSV shape of one ledger row. Dates are ISO and
// amounts use a dot decimal so an exported file re-imports cleanly as
// duplicates instead of new rows.
type exportRow struct {
	Date        string `csv:"Date"`
	Amount      string `csv:"Amount"`
	Description string `csv:"Description"`
	Category    string `csv:"Category"`
	Merchant    string `csv:"Merchant"`
	Source      string `csv:"Source"`
}

// ExportCSV renders transactions as a comma separated statement,
// headers included.
func ExportCSV(txs []Transaction) ([]byte, error) {
	rows := make([]exportRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, exportRow{
			Date:        tx.OccurredOn.Format("2006-01-02"),
			Amount:      AmountDecimal(tx.AmountCents).String(),
			Description: tx.Description,
			Category:    tx.Category,
			Merchant:    tx.MerchantName,
			Source:      tx.Source,
		})
	}

	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to render csv export: %w", err)
	}
	return data, nil
}
