package analytics

import (
	"sort"

	"pos_ledger/internal/expense"
	"pos_ledger/internal/inventory"
	"pos_ledger/internal/ledger"
)

// SaleSource supplies the sale history. Satisfied by ledger.Storage.
type SaleSource interface {
	GetAll() ([]*ledger.Sale, error)
}

// ExpenseSource supplies the expense history. Satisfied by expense.Storage.
type ExpenseSource interface {
	GetAll() ([]*expense.Expense, error)
}

// ProductSource supplies product records for cost-basis lookups.
type ProductSource interface {
	Get(id int64) (inventory.Product, error)
}

// Aggregator derives read-only views over recorded history. It never mutates
// ledger state and recomputes on every call; there are no materialized views
// to go stale.
type Aggregator struct {
	sales    SaleSource
	expenses ExpenseSource
	products ProductSource
}

// NewAggregator creates a new Aggregator.
func NewAggregator(sales SaleSource, expenses ExpenseSource, products ProductSource) *Aggregator {
	return &Aggregator{sales: sales, expenses: expenses, products: products}
}

// MonthBucket is the revenue and margin of one calendar month.
type MonthBucket struct {
	Month   string  `json:"month"` // formatted as 2006-01
	Revenue float64 `json:"revenue"`
	Margin  float64 `json:"margin"`
}

// MonthlyRevenue groups completed sales by the calendar month of their
// creation timestamp, oldest month first. Margin is revenue minus
// cost-of-goods; lines whose product carries no cost basis contribute their
// full revenue to margin.
func (a *Aggregator) MonthlyRevenue() ([]MonthBucket, error) {
	sales, err := a.sales.GetAll()
	if err != nil {
		return nil, err
	}

	buckets := map[string]*MonthBucket{}
	for _, s := range sales {
		if s.Status != ledger.StatusCompleted {
			continue
		}
		month := s.CreatedAt.Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &MonthBucket{Month: month}
			buckets[month] = b
		}
		b.Revenue += s.Total
		b.Margin += s.Total - a.costOf(s)
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// ProductRanking is one row of the top-products view.
type ProductRanking struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Grams     float64 `json:"grams"`
}

// TopProducts sums grams sold per product across completed sales and returns
// the top n by quantity descending, ties broken by product id ascending.
func (a *Aggregator) TopProducts(n int) ([]ProductRanking, error) {
	sales, err := a.sales.GetAll()
	if err != nil {
		return nil, err
	}

	grams := map[int64]*ProductRanking{}
	for _, s := range sales {
		if s.Status != ledger.StatusCompleted {
			continue
		}
		for _, l := range s.Lines {
			r, ok := grams[l.ProductID]
			if !ok {
				r = &ProductRanking{ProductID: l.ProductID, Name: l.Name}
				grams[l.ProductID] = r
			}
			r.Grams += l.Grams
		}
	}

	ranked := make([]ProductRanking, 0, len(grams))
	for _, r := range grams {
		ranked = append(ranked, *r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Grams == ranked[j].Grams {
			return ranked[i].ProductID < ranked[j].ProductID
		}
		return ranked[i].Grams > ranked[j].Grams
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// CustomerMix partitions completed sales into known-customer vs anonymous.
type CustomerMix struct {
	Known        int     `json:"known"`
	Anonymous    int     `json:"anonymous"`
	KnownPct     float64 `json:"known_pct"`
	AnonymousPct float64 `json:"anonymous_pct"`
}

// CustomerDistribution counts completed sales with and without a customer.
func (a *Aggregator) CustomerDistribution() (CustomerMix, error) {
	sales, err := a.sales.GetAll()
	if err != nil {
		return CustomerMix{}, err
	}

	var mix CustomerMix
	for _, s := range sales {
		if s.Status != ledger.StatusCompleted {
			continue
		}
		if s.CustomerID != nil {
			mix.Known++
		} else {
			mix.Anonymous++
		}
	}
	if total := mix.Known + mix.Anonymous; total > 0 {
		mix.KnownPct = float64(mix.Known) / float64(total) * 100
		mix.AnonymousPct = float64(mix.Anonymous) / float64(total) * 100
	}
	return mix, nil
}

// CategoryTotal is one row of the expenses-by-category rollup.
type CategoryTotal struct {
	Category expense.Category `json:"category"`
	Total    float64          `json:"total"`
}

// ExpenseByCategory sums amounts for all non-cancelled expenses grouped by
// category, largest sum first.
func (a *Aggregator) ExpenseByCategory() ([]CategoryTotal, error) {
	expenses, err := a.expenses.GetAll()
	if err != nil {
		return nil, err
	}

	totals := map[expense.Category]float64{}
	for _, e := range expenses {
		if e.Status == expense.StatusCancelled {
			continue
		}
		totals[e.Category] += e.Amount
	}

	out := make([]CategoryTotal, 0, len(totals))
	for c, t := range totals {
		out = append(out, CategoryTotal{Category: c, Total: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Category < out[j].Category
		}
		return out[i].Total > out[j].Total
	})
	return out, nil
}

// costOf is the cost-of-goods of one sale. Missing products or a zero unit
// cost mean no cost basis for that line.
func (a *Aggregator) costOf(s *ledger.Sale) float64 {
	if a.products == nil {
		return 0
	}
	var cost float64
	for _, l := range s.Lines {
		p, err := a.products.Get(l.ProductID)
		if err != nil {
			continue
		}
		cost += l.Grams * p.UnitCost
	}
	return cost
}
