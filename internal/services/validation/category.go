package validation

import (
	"strings"

	"github.com/bobmcallan/navcheck/internal/models"
)

// Category is the closed set of validator families.
type Category int

const (
	Pricing Category = iota
	Positions
	MarketValue
	TradingIE
	Expenses
	Fees
	Ratios
)

// Categories lists every Category in routing order.
func Categories() []Category {
	return []Category{Pricing, Positions, MarketValue, TradingIE, Expenses, Fees, Ratios}
}

func (c Category) String() string {
	switch c {
	case Pricing:
		return "Pricing"
	case Positions:
		return "Positions"
	case MarketValue:
		return "Market Value"
	case TradingIE:
		return "Trading I&E"
	case Expenses:
		return "Expenses"
	case Fees:
		return "Fees"
	case Ratios:
		return "Ratios"
	}
	return "Unknown"
}

// ParseCategory maps a catalog category to its validator family. The ratio
// groups (Financial, Liquidity, Concentration, Sentiment, Activity) all
// route to Ratios.
func ParseCategory(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "pricing", "price":
		return Pricing, true
	case "positions", "position":
		return Positions, true
	case "market value", "marketvalue", "mv":
		return MarketValue, true
	case "trading i&e", "trading ie", "trading", "tradingie":
		return TradingIE, true
	case "expenses", "expense":
		return Expenses, true
	case "fees", "fee":
		return Fees, true
	case "ratios", "ratio", "financial", "liquidity", "concentration", "sentiment", "activity":
		return Ratios, true
	}
	return 0, false
}

type validatorFunc func(e *Engine, in Input, kpis []models.KPI) []models.ValidationResult

var validators = map[Category]validatorFunc{
	Pricing:     (*Engine).pricing,
	Positions:   (*Engine).positions,
	MarketValue: (*Engine).marketValue,
	TradingIE:   (*Engine).tradingIE,
	Expenses:    (*Engine).expenses,
	Fees:        (*Engine).fees,
	Ratios:      (*Engine).ratios,
}

type categoryGroup struct {
	category Category
	kpis     []models.KPI
}

// groupByCategory buckets KPIs by family in first-seen order. Unknown
// categories are dropped.
func groupByCategory(kpis []models.KPI) []categoryGroup {
	var groups []categoryGroup
	pos := map[Category]int{}
	for _, k := range kpis {
		c, ok := ParseCategory(k.Category)
		if !ok {
			continue
		}
		i, seen := pos[c]
		if !seen {
			i = len(groups)
			pos[c] = i
			groups = append(groups, categoryGroup{category: c})
		}
		groups[i].kpis = append(groups[i].kpis, k)
	}
	return groups
}
