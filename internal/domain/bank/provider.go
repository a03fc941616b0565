package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultProviderURL is the GoCardless Bank Account Data API root.
	DefaultProviderURL = "https://bankaccountdata.gocardless.com/api/v2"

	// ProviderTimeout bounds a single transactions request.
	ProviderTimeout = 15 * time.Second

	bookingDateLayout = "2006-01-02"
)

// ProviderClient fetches account transactions from a PSD2 account
// information aggregator. It authenticates with a pre-provisioned access
// token; linking accounts and refreshing tokens happen outside this
// service.
type ProviderClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewProviderClient creates an aggregator API client. An empty baseURL
// selects the hosted endpoint.
func NewProviderClient(baseURL, token string, logger *slog.Logger) *ProviderClient {
	if baseURL == "" {
		baseURL = DefaultProviderURL
	}
	return &ProviderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: ProviderTimeout,
		},
		logger: logger,
	}
}

// providerRecord mirrors the Berlin Group transaction schema the
// aggregator returns.
type providerRecord struct {
	BookingDate       string `json:"bookingDate"`
	TransactionAmount struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"transactionAmount"`
	RemittanceInformation string `json:"remittanceInformationUnstructured"`
	CreditorName          string `json:"creditorName"`
	DebtorName            string `json:"debtorName"`
}

// transactionsResponse is the aggregator's transactions listing.
type transactionsResponse struct {
	Transactions struct {
		Booked  []providerRecord `json:"booked"`
		Pending []providerRecord `json:"pending"`
	} `json:"transactions"`
}

// FetchTransactions lists the booked transactions of one linked account
// within [from, to]. Pending transactions are skipped: their dates and
// amounts can still change, which would break identity-based dedup.
func (c *ProviderClient) FetchTransactions(ctx context.Context, conn *Connection, from, to time.Time) ([]ProviderTransaction, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions/?date_from=%s&date_to=%s",
		c.baseURL,
		url.PathEscape(conn.ExternalAccountID),
		from.Format(bookingDateLayout),
		to.Format(bookingDateLayout),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("provider request failed",
			"account_id", conn.ExternalAccountID, "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed transactionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse transactions response: %w", err)
	}

	rows := make([]ProviderTransaction, 0, len(parsed.Transactions.Booked))
	for _, rec := range parsed.Transactions.Booked {
		row, err := rec.toDomain()
		if err != nil {
			c.logger.Warn("skipping malformed provider transaction",
				"account_id", conn.ExternalAccountID, "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// toDomain converts one aggregator record. The description falls back
// from remittance text to the counterparty name, matching what banks
// show in their own apps.
func (r providerRecord) toDomain() (ProviderTransaction, error) {
	date, err := time.Parse(bookingDateLayout, r.BookingDate)
	if err != nil {
		return ProviderTransaction{}, fmt.Errorf("bad booking date %q: %w", r.BookingDate, err)
	}

	amount, err := decimal.NewFromString(r.TransactionAmount.Amount)
	if err != nil {
		return ProviderTransaction{}, fmt.Errorf("bad amount %q: %w", r.TransactionAmount.Amount, err)
	}

	description := r.RemittanceInformation
	if description == "" {
		description = r.CreditorName
	}
	if description == "" {
		description = r.DebtorName
	}

	return ProviderTransaction{
		Date:        date.UTC(),
		Amount:      amount,
		Description: description,
	}, nil
}
