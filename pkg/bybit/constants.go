package bybit

import "fmt"

// Category is the Bybit V5 product category used in market data requests.
type Category string

const (
	CategoryLinear  Category = "linear" // USDT perpetual futures
	CategoryInverse Category = "inverse"
	CategorySpot    Category = "spot"
	CategoryOption  Category = "option"
)

var validCategories = map[Category]bool{
	CategoryLinear:  true,
	CategoryInverse: true,
	CategorySpot:    true,
	CategoryOption:  true,
}

// IsValid checks if the Category is a predefined V5 category.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// ParseCategory parses a string into a valid Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}

const (
	mainnetBaseURL = "https://api.bybit.com"
	testnetBaseURL = "https://api-testnet.bybit.com"

	mainnetStreamHost = "wss://stream.bybit.com"
	testnetStreamHost = "wss://stream-testnet.bybit.com"
)

// BaseURL returns the REST endpoint for mainnet or testnet.
func BaseURL(testnet bool) string {
	if testnet {
		return testnetBaseURL
	}
	return mainnetBaseURL
}

// StreamURL returns the public WebSocket endpoint for the given category.
func StreamURL(testnet bool, category Category) string {
	host := mainnetStreamHost
	if testnet {
		host = testnetStreamHost
	}
	return fmt.Sprintf("%s/v5/public/%s", host, category)
}
