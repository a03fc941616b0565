// Package normalizer provides merchant sanitization and category detection.
// merchant.go handles merchant name normalization and automatic categorization.
package normalizer

import (
	"regexp"
	"strings"
)

// MerchantInfo contains normalized merchant information
type MerchantInfo struct {
	OriginalName   string `json:"original_name"`
	NormalizedName string `json:"normalized_name"`
	Category       string `json:"category,omitempty"`
	Subcategory    string `json:"subcategory,omitempty"`
}

// MerchantPattern defines a pattern for matching and normalizing merchants
type MerchantPattern struct {
	Pattern     *regexp.Regexp
	Name        string
	Category    string
	Subcategory string
}

// MerchantSanitizer normalizes merchant names and detects categories
type MerchantSanitizer struct {
	patterns []MerchantPattern
}

// NewMerchantSanitizer creates a new sanitizer with common merchant patterns
func NewMerchantSanitizer() *MerchantSanitizer {
	return &MerchantSanitizer{
		patterns: defaultMerchantPatterns(),
	}
}

// Sanitize normalizes a merchant name and detects its category
func (s *MerchantSanitizer) Sanitize(rawMerchant string) MerchantInfo {
	result := MerchantInfo{
		OriginalName:   rawMerchant,
		NormalizedName: rawMerchant,
	}

	// Clean the input
	cleaned := cleanMerchantName(rawMerchant)
	result.NormalizedName = cleaned

	// Try to match against known patterns
	for _, pattern := range s.patterns {
		if pattern.Pattern.MatchString(strings.ToUpper(cleaned)) {
			result.NormalizedName = pattern.Name
			result.Category = pattern.Category
			result.Subcategory = pattern.Subcategory
			return result
		}
	}

	// Fallback: title case the cleaned name
	result.NormalizedName = titleCase(cleaned)
	return result
}

// AddPattern adds a custom merchant pattern
func (s *MerchantSanitizer) AddPattern(pattern string, name, category, subcategory string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, MerchantPattern{
		Pattern:     re,
		Name:        name,
		Category:    category,
		Subcategory: subcategory,
	})
	return nil
}

// cleanMerchantName removes common noise from merchant names
func cleanMerchantName(raw string) string {
	// Trim whitespace
	result := strings.TrimSpace(raw)

	// Remove common statement prefixes
	prefixes := []string{
		"ΑΓΟΡΑ POS ", "ΑΓΟΡΑ ", "ΠΛΗΡΩΜΗ ΛΟΓΑΡΙΑΣΜΟΥ ", "ΠΛΗΡΩΜΗ ",
		"ΑΝΑΛΗΨΗ ΑΤΜ ", "ΑΝΑΛΗΨΗ ", "ΜΕΤΑΦΟΡΑ ", "ΕΜΒΑΣΜΑ ",
		"ΠΑΓΙΑ ΕΝΤΟΛΗ ", "ΧΡΕΩΣΗ ",
		"POS PURCHASE ", "POS ", "CARD PURCHASE ", "PURCHASE ", "PAYMENT ",
		"VISA ", "MASTERCARD ", "MAESTRO ",
		"E-BANKING ", "WEB BANKING ", "IRIS ",
	}
	upper := strings.ToUpper(result)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			result = result[len(prefix):]
			break
		}
	}

	// Remove terminal/reference numbers at the end (e.g., "123456")
	refPattern := regexp.MustCompile(`\s+\d{4,}$`)
	result = refPattern.ReplaceAllString(result, "")

	// Remove date patterns at the end (e.g., "12/01")
	datePattern := regexp.MustCompile(`\s+\d{1,2}/\d{1,2}/?$`)
	result = datePattern.ReplaceAllString(result, "")

	// Collapse multiple spaces
	spacePattern := regexp.MustCompile(`\s+`)
	result = spacePattern.ReplaceAllString(result, " ")

	return strings.TrimSpace(result)
}

// titleCase converts a string to title case. Statement text is Greek and
// Latin mixed, so casing has to be rune aware.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		if len(runes) > 0 {
			words[i] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
		}
	}
	return strings.Join(words, " ")
}

// defaultMerchantPatterns returns common merchant patterns for Greece/EU
func defaultMerchantPatterns() []MerchantPattern {
	patterns := []MerchantPattern{
		// Greek Supermarkets
		{regexp.MustCompile(`ΣΚΛΑΒΕΝΙΤΗΣ|SKLAVENITIS`), "Σκλαβενίτης", "Groceries", "Supermarket"},
		{regexp.MustCompile(`ΑΒ\s*ΒΑΣΙΛΟΠΟΥΛΟΣ|AB\s*VASSILOPOULOS`), "ΑΒ Βασιλόπουλος", "Groceries", "Supermarket"},
		{regexp.MustCompile(`LIDL`), "Lidl", "Groceries", "Supermarket"},
		{regexp.MustCompile(`MY\s*MARKET`), "My Market", "Groceries", "Supermarket"},
		{regexp.MustCompile(`ΜΑΣΟΥΤΗΣ|MASOUTIS`), "Μασούτης", "Groceries", "Supermarket"},
		{regexp.MustCompile(`ΓΑΛΑΞΙΑΣ|GALAXIAS`), "Γαλαξίας", "Groceries", "Supermarket"},
		{regexp.MustCompile(`ΚΡΗΤΙΚΟΣ|KRITIKOS`), "Κρητικός", "Groceries", "Supermarket"},

		// Coffee & Food
		{regexp.MustCompile(`COFFEE\s*ISLAND`), "Coffee Island", "Dining", "Coffee"},
		{regexp.MustCompile(`MIKEL`), "Mikel Coffee", "Dining", "Coffee"},
		{regexp.MustCompile(`GREGORYS|ΓΡΗΓΟΡΗΣ`), "Γρηγόρης", "Dining", "Coffee"},
		{regexp.MustCompile(`EVEREST`), "Everest", "Dining", "Fast Food"},
		{regexp.MustCompile(`GOODYS|GOODY'S`), "Goody's", "Dining", "Fast Food"},
		{regexp.MustCompile(`MC\s*DONALDS|MCDONALD`), "McDonald's", "Dining", "Fast Food"},
		{regexp.MustCompile(`WOLT`), "Wolt", "Dining", "Delivery"},
		{regexp.MustCompile(`E\s*FOOD|EFOOD`), "efood", "Dining", "Delivery"},
		{regexp.MustCompile(`BOX\s*DELIVERY|\bBOX\b`), "BOX", "Dining", "Delivery"},

		// Transport
		{regexp.MustCompile(`\bUBER\b`), "Uber", "Transport", "Rideshare"},
		{regexp.MustCompile(`BEAT\s*TAXI|\bBEAT\b`), "Beat", "Transport", "Rideshare"},
		{regexp.MustCompile(`FREE\s*NOW|FREENOW`), "Free Now", "Transport", "Rideshare"},
		{regexp.MustCompile(`ΟΑΣΑ|OASA|ATH\.?ENA\s*CARD`), "ΟΑΣΑ", "Transport", "Public Transit"},
		{regexp.MustCompile(`ΤΡΑΙΝΟΣΕ|HELLENIC\s*TRAIN`), "Hellenic Train", "Transport", "Train"},
		{regexp.MustCompile(`SHELL|EKO\b|BP\s*HELLAS|AVIN|ΕΛΙΝΟΙΛ`), "Fuel Station", "Transport", "Fuel"},

		// Travel
		{regexp.MustCompile(`AEGEAN`), "Aegean Airlines", "Travel", "Flights"},
		{regexp.MustCompile(`SKY\s*EXPRESS`), "Sky Express", "Travel", "Flights"},
		{regexp.MustCompile(`RYANAIR`), "Ryanair", "Travel", "Flights"},
		{regexp.MustCompile(`BLUE\s*STAR|ANEK|MINOAN`), "Ferry", "Travel", "Ferry"},
		{regexp.MustCompile(`BOOKING\.COM|AIRBNB`), "Accommodation", "Travel", "Accommodation"},

		// Utilities
		{regexp.MustCompile(`ΔΕΗ|\bDEI\b|PPC`), "ΔΕΗ", "Utilities", "Electricity"},
		{regexp.MustCompile(`ΕΥΔΑΠ|EYDAP`), "ΕΥΔΑΠ", "Utilities", "Water"},
		{regexp.MustCompile(`ΦΥΣΙΚΟ\s*ΑΕΡΙΟ|ZENITH`), "Φυσικό Αέριο", "Utilities", "Gas"},
		{regexp.MustCompile(`COSMOTE|ΟΤΕ|\bOTE\b`), "Cosmote", "Utilities", "Telecom"},
		{regexp.MustCompile(`VODAFONE`), "Vodafone", "Utilities", "Telecom"},
		{regexp.MustCompile(`\bNOVA\b|WIND\s*HELLAS|\bWIND\b`), "Nova", "Utilities", "Telecom"},

		// Shopping
		{regexp.MustCompile(`AMAZON`), "Amazon", "Shopping", "Online"},
		{regexp.MustCompile(`SKROUTZ`), "Skroutz", "Shopping", "Online"},
		{regexp.MustCompile(`ZARA`), "Zara", "Shopping", "Clothing"},
		{regexp.MustCompile(`H\s*&\s*M|H&M`), "H&M", "Shopping", "Clothing"},
		{regexp.MustCompile(`IKEA`), "IKEA", "Shopping", "Home"},
		{regexp.MustCompile(`ΠΛΑΙΣΙΟ|PLAISIO`), "Πλαίσιο", "Shopping", "Electronics"},
		{regexp.MustCompile(`ΚΩΤΣΟΒΟΛΟΣ|KOTSOVOLOS`), "Κωτσόβολος", "Shopping", "Electronics"},
		{regexp.MustCompile(`\bPUBLIC\b`), "Public", "Shopping", "Electronics"},
		{regexp.MustCompile(`JUMBO`), "Jumbo", "Shopping", "Home"},

		// Subscriptions
		{regexp.MustCompile(`NETFLIX`), "Netflix", "Subscriptions", "Streaming"},
		{regexp.MustCompile(`SPOTIFY`), "Spotify", "Subscriptions", "Streaming"},
		{regexp.MustCompile(`DISNEY\s*\+|DISNEYPLUS`), "Disney+", "Subscriptions", "Streaming"},
		{regexp.MustCompile(`APPLE\.COM|APPLE\s*MUSIC`), "Apple", "Subscriptions", "Streaming"},
		{regexp.MustCompile(`PLAYSTATION|PSN`), "PlayStation", "Subscriptions", "Gaming"},
		{regexp.MustCompile(`STEAM`), "Steam", "Subscriptions", "Gaming"},

		// Health
		{regexp.MustCompile(`ΦΑΡΜΑΚΕΙΟ|FARMAKEIO|PHARMACY`), "Φαρμακείο", "Health", "Pharmacy"},
		{regexp.MustCompile(`ΙΑΤΡΙΚΟ|ΥΓΕΙΑ|METROPOLITAN`), "Ιατρικό Κέντρο", "Health", "Medical"},

		// Banks/Finance
		{regexp.MustCompile(`ΕΘΝΙΚΗ\s*ΤΡΑΠΕΖΑ|\bNBG\b`), "Εθνική Τράπεζα", "Transfers", "Bank"},
		{regexp.MustCompile(`ALPHA\s*BANK`), "Alpha Bank", "Transfers", "Bank"},
		{regexp.MustCompile(`EUROBANK`), "Eurobank", "Transfers", "Bank"},
		{regexp.MustCompile(`ΠΕΙΡΑΙΩΣ|PIRAEUS`), "Τράπεζα Πειραιώς", "Transfers", "Bank"},
		{regexp.MustCompile(`REVOLUT`), "Revolut", "Transfers", "Digital Bank"},
		{regexp.MustCompile(`PAYPAL`), "PayPal", "Transfers", "Payment"},
	}
	return patterns
}
