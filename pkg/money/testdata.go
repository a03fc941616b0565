package money

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// TestDataGenerator generates realistic bank-statement test data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// ============================================================================
// Transaction Generation
// ============================================================================

// TestTransaction represents a generated test transaction.
type TestTransaction struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	Amount      *Money
	Category    string
	Merchant    string
	IsExpense   bool
}

// Transaction generates a single random transaction.
func (g *TestDataGenerator) Transaction(currency string) TestTransaction {
	isExpense := g.faker.Bool()
	amount := g.RandomAmount(currency, 1, 50000) // €0.01 to €500.00

	if isExpense {
		amount = amount.Negate()
	}

	return TestTransaction{
		ID:          uuid.New(),
		Date:        g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
		Description: g.StatementDescription(),
		Amount:      amount,
		Category:    g.Category(),
		Merchant:    g.Merchant(),
		IsExpense:   isExpense,
	}
}

// Transactions generates multiple random transactions.
func (g *TestDataGenerator) Transactions(currency string, count int) []TestTransaction {
	txs := make([]TestTransaction, count)
	for i := 0; i < count; i++ {
		txs[i] = g.Transaction(currency)
	}
	return txs
}

// ExpenseTransaction generates a random expense transaction.
func (g *TestDataGenerator) ExpenseTransaction(currency string) TestTransaction {
	tx := g.Transaction(currency)
	tx.IsExpense = true
	if tx.Amount.IsPositive() {
		tx.Amount = tx.Amount.Negate()
	}
	return tx
}

// IncomeTransaction generates a random income transaction.
func (g *TestDataGenerator) IncomeTransaction(currency string) TestTransaction {
	tx := g.Transaction(currency)
	tx.IsExpense = false
	tx.Amount = g.RandomAmount(currency, 100000, 1000000) // €1,000 to €10,000
	tx.Description = g.IncomeDescription()
	return tx
}

// RandomAmount generates a random Money value within a cent range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) *Money {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

// ============================================================================
// Description and Merchant Generation
// ============================================================================

var categories = []string{
	"Groceries", "Dining", "Transport", "Utilities",
	"Shopping", "Entertainment", "Health", "Travel",
	"Subscriptions", "Income", "Transfers", "Uncategorized",
}

var merchants = []string{
	"ΣΚΛΑΒΕΝΙΤΗΣ", "ΑΒ ΒΑΣΙΛΟΠΟΥΛΟΣ", "LIDL HELLAS", "MY MARKET",
	"COFFEE ISLAND", "MIKEL COFFEE", "GREGORYS", "EVEREST",
	"WOLT", "EFOOD", "BOX DELIVERY",
	"ΔΕΗ", "ΟΤΕ", "COSMOTE", "VODAFONE GR", "ΕΥΔΑΠ",
	"SHELL", "EKO", "BP HELLAS", "AVIN",
	"AEGEAN AIRLINES", "SKY EXPRESS", "BEAT TAXI",
	"PLAISIO", "KOTSOVOLOS", "PUBLIC", "IKEA ATHENS",
	"NETFLIX.COM", "SPOTIFY", "AMAZON EU",
}

var statementDescriptions = []string{
	"POS purchase",
	"ΑΓΟΡΑ POS",
	"Card purchase online",
	"ATM withdrawal",
	"ΑΝΑΛΗΨΗ ΑΤΜ",
	"Standing order",
	"Direct debit utility bill",
	"ΠΛΗΡΩΜΗ ΛΟΓΑΡΙΑΣΜΟΥ",
	"Web banking transfer",
	"ΜΕΤΑΦΟΡΑ",
	"Subscription renewal",
	"Supermarket",
	"Coffee shop",
	"Restaurant",
	"Pharmacy",
	"ΦΑΡΜΑΚΕΙΟ",
	"Fuel station",
	"Taxi fare",
	"Parking fee",
	"Toll payment",
}

var incomeDescriptions = []string{
	"ΜΙΣΘΟΔΟΣΙΑ",
	"Salary credit",
	"Incoming transfer",
	"Invoice payment received",
	"Freelance payment",
	"Tax refund",
	"ΕΠΙΣΤΡΟΦΗ ΦΟΡΟΥ",
	"Dividend payment",
	"Interest credit",
}

// Category returns a random category name.
func (g *TestDataGenerator) Category() string {
	return categories[g.faker.Number(0, len(categories)-1)]
}

// Merchant returns a random merchant name as it appears on statements.
func (g *TestDataGenerator) Merchant() string {
	return merchants[g.faker.Number(0, len(merchants)-1)]
}

// StatementDescription returns a random statement line description.
func (g *TestDataGenerator) StatementDescription() string {
	return statementDescriptions[g.faker.Number(0, len(statementDescriptions)-1)]
}

// IncomeDescription returns a random income description.
func (g *TestDataGenerator) IncomeDescription() string {
	return incomeDescriptions[g.faker.Number(0, len(incomeDescriptions)-1)]
}

// ============================================================================
// Statement Rendering
// ============================================================================

// EUAmount renders cents in European statement notation, e.g. 123456 -> "1.234,56".
func EUAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}

	euros := strconv.FormatInt(cents/100, 10)
	var groups []string
	for len(euros) > 3 {
		groups = append([]string{euros[len(euros)-3:]}, groups...)
		euros = euros[:len(euros)-3]
	}
	groups = append([]string{euros}, groups...)

	out := strings.Join(groups, ".") + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		out = "-" + out
	}
	return out
}

// CSVStatement renders transactions as a delimited Greek bank export,
// headers included.
func (g *TestDataGenerator) CSVStatement(currency string, delimiter rune, count int) []byte {
	var b strings.Builder
	d := string(delimiter)
	b.WriteString("ΗΜΕΡΟΜΗΝΙΑ" + d + "ΠΟΣΟ" + d + "ΠΕΡΙΓΡΑΦΗ\n")
	for _, tx := range g.Transactions(currency, count) {
		b.WriteString(tx.Date.Format("02/01/2006"))
		b.WriteString(d)
		b.WriteString(EUAmount(tx.Amount.Amount()))
		b.WriteString(d)
		b.WriteString(tx.Description + " " + tx.Merchant)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// MonthlyStatementSet generates a realistic month of statement transactions.
func (g *TestDataGenerator) MonthlyStatementSet(currency string) []TestTransaction {
	txs := make([]TestTransaction, 0, 50)

	// Recurring income (1-2 salary credits)
	paycheckCount := g.faker.Number(1, 2)
	for i := 0; i < paycheckCount; i++ {
		txs = append(txs, g.IncomeTransaction(currency))
	}

	// Bills (5-10)
	billCount := g.faker.Number(5, 10)
	for i := 0; i < billCount; i++ {
		tx := g.ExpenseTransaction(currency)
		tx.Amount = g.RandomAmount(currency, 2000, 50000).Negate()
		tx.Category = "Utilities"
		txs = append(txs, tx)
	}

	// Daily card expenses (20-40)
	expenseCount := g.faker.Number(20, 40)
	for i := 0; i < expenseCount; i++ {
		txs = append(txs, g.ExpenseTransaction(currency))
	}

	return txs
}
