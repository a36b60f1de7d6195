package orders

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/pkg/apperr"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

// CancelSaleInput is the admin payload for reverting a completed sale.
// RestoreStock defaults to true when absent.
type CancelSaleInput struct {
	Reason       string `json:"reason,omitempty"`
	AdminNotes   string `json:"adminNotes,omitempty"`
	RestoreStock *bool  `json:"restoreStock,omitempty"`
}

// RestoredStock reports one product's stock restoration during a sale
// cancellation.
type RestoredStock struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName"`
	QuantityRestored int    `json:"quantityRestored"`
	NewStock         int    `json:"newStock"`
}

// CancelSaleResult is the cancellation outcome, including which lines could
// not be restored (typically because the product was deleted since).
type CancelSaleResult struct {
	Sale          models.Sale         `json:"sale"`
	StockRestored bool                `json:"stockRestored"`
	Restored      []RestoredStock     `json:"restoredStock,omitempty"`
	RestoreErrors []apperr.StockIssue `json:"restoreErrors,omitempty"`
}

// CancelSale marks a sale cancelled and puts the sold quantities back in
// stock. Restoration is per line and skips products that no longer exist;
// the original order is left untouched.
func (s *Service) CancelSale(ctx context.Context, saleID, cancelledBy string, input CancelSaleInput) (CancelSaleResult, error) {
	sale, err := s.sales.Get(ctx, saleID)
	if err == store.ErrNotFound {
		return CancelSaleResult{}, apperr.NewNotFoundWithFields("Sale not found",
			map[string]interface{}{"saleId": saleID})
	}
	if err != nil {
		return CancelSaleResult{}, apperr.NewInternal("Failed to load sale", err)
	}
	if sale.Status == models.SaleStatusCancelled {
		return CancelSaleResult{}, apperr.NewInvalidState("Sale is already cancelled",
			string(sale.Status))
	}

	restoreStock := input.RestoreStock == nil || *input.RestoreStock
	reason := orDefault(input.Reason, "Sale cancelled by admin")
	now := time.Now().UTC()

	// The conditional cancel goes first: of two racing cancellations only
	// one passes it, so stock is never restored twice.
	if err := s.sales.Cancel(ctx, saleID, now, cancelledBy, reason, input.AdminNotes, restoreStock); err != nil {
		if err == store.ErrStateConflict {
			return CancelSaleResult{}, apperr.NewInvalidState("Sale is already cancelled", "")
		}
		if err == store.ErrNotFound {
			return CancelSaleResult{}, apperr.NewNotFoundWithFields("Sale not found",
				map[string]interface{}{"saleId": saleID})
		}
		return CancelSaleResult{}, apperr.NewInternal("Failed to cancel sale", err)
	}

	result := CancelSaleResult{StockRestored: restoreStock}
	if restoreStock {
		for _, item := range sale.Items {
			product, err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity, now)
			if err != nil {
				s.log.Warn("failed to restore stock for cancelled sale",
					zap.String("sale_id", saleID),
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				result.RestoreErrors = append(result.RestoreErrors, apperr.StockIssue{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					Issue:       "Stock restore failed",
				})
				continue
			}
			result.Restored = append(result.Restored, RestoredStock{
				ProductID:        item.ProductID,
				ProductName:      item.ProductName,
				QuantityRestored: item.Quantity,
				NewStock:         product.Stock,
			})
		}
	}

	sale.Status = models.SaleStatusCancelled
	sale.CancelledAt = &now
	sale.CancelledBy = cancelledBy
	sale.CancellationReason = reason
	if input.AdminNotes != "" {
		sale.AdminNotes = input.AdminNotes
	}
	sale.StockRestored = restoreStock
	result.Sale = sale

	s.log.Info("sale cancelled",
		zap.String("sale_id", saleID),
		zap.String("cancelled_by", cancelledBy),
		zap.Bool("stock_restored", restoreStock),
		zap.Int("restore_errors", len(result.RestoreErrors)))
	return result, nil
}

// SalesPage is the sales listing for a period, newest first.
type SalesPage struct {
	Sales  []models.Sale `json:"sales"`
	Count  int           `json:"count"`
	Period string        `json:"period"`
}

// ListSales returns the ledger filtered by period: "today", "week",
// "month", "year" or "all" (the default).
func (s *Service) ListSales(ctx context.Context, period string) (SalesPage, error) {
	filter, normalized, err := periodFilter(period, time.Now().UTC())
	if err != nil {
		return SalesPage{}, err
	}
	sales, err := s.sales.List(ctx, filter)
	if err != nil {
		return SalesPage{}, apperr.NewInternal("Failed to list sales", err)
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	return SalesPage{Sales: sales, Count: len(sales), Period: normalized}, nil
}

// ProductStat is one line of the top-products ranking.
type ProductStat struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	QuantitySold int     `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

// MethodStat aggregates sales per payment or delivery method.
type MethodStat struct {
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// Overview holds the headline numbers of a statistics report. Cancelled
// sales count toward TotalCancelled only; revenue and item counts cover
// completed sales.
type Overview struct {
	TotalSales        int     `json:"totalSales"`
	TotalCancelled    int     `json:"totalCancelled"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalItemsSold    int     `json:"totalItemsSold"`
	AverageOrderValue float64 `json:"averageOrderValue"`
	CancellationRate  float64 `json:"cancellationRate"`
}

// Statistics is the full sales report for a period.
type Statistics struct {
	Period            string                `json:"period"`
	Overview          Overview              `json:"overview"`
	PaymentMethods    map[string]MethodStat `json:"paymentMethods"`
	DeliveryMethods   map[string]MethodStat `json:"deliveryMethods"`
	TopByQuantity     []ProductStat         `json:"topProductsByQuantity"`
	TopByRevenue      []ProductStat         `json:"topProductsByRevenue"`
	CategoryBreakdown map[string]MethodStat `json:"categoryBreakdown"`
	GenderBreakdown   map[string]MethodStat `json:"genderBreakdown"`
	DailySales        map[string]MethodStat `json:"dailySales"`
}

const topProductsLimit = 10

// SalesStatistics computes the report from the raw ledger on every call.
// Sales volume here is small enough that precomputing aggregates is not
// worth the write-path complexity.
func (s *Service) SalesStatistics(ctx context.Context, period string) (Statistics, error) {
	filter, normalized, err := periodFilter(period, time.Now().UTC())
	if err != nil {
		return Statistics{}, err
	}
	sales, err := s.sales.List(ctx, filter)
	if err != nil {
		return Statistics{}, apperr.NewInternal("Failed to list sales", err)
	}

	stats := Statistics{
		Period:            normalized,
		PaymentMethods:    map[string]MethodStat{},
		DeliveryMethods:   map[string]MethodStat{},
		CategoryBreakdown: map[string]MethodStat{},
		GenderBreakdown:   map[string]MethodStat{},
		DailySales:        map[string]MethodStat{},
	}
	products := map[string]*ProductStat{}

	for _, sale := range sales {
		if sale.Status == models.SaleStatusCancelled {
			stats.Overview.TotalCancelled++
			continue
		}
		revenue := sale.Summary.TotalAmount
		stats.Overview.TotalSales++
		stats.Overview.TotalRevenue = round2(stats.Overview.TotalRevenue + revenue)
		stats.Overview.TotalItemsSold += sale.Summary.TotalQuantity

		addMethodStat(stats.PaymentMethods, orDefault(sale.PaymentMethod, "unknown"), revenue)
		addMethodStat(stats.DeliveryMethods, orDefault(sale.DeliveryMethod, "unknown"), revenue)
		addMethodStat(stats.DailySales, sale.CompletedAt.Format("2006-01-02"), revenue)

		for _, item := range sale.Items {
			stat, ok := products[item.ProductID]
			if !ok {
				stat = &ProductStat{ProductID: item.ProductID, ProductName: item.ProductName}
				products[item.ProductID] = stat
			}
			stat.QuantitySold += item.Quantity
			stat.Revenue = round2(stat.Revenue + item.Subtotal)

			addQuantityStat(stats.CategoryBreakdown, orDefault(item.ProductCategory, "unknown"), item.Quantity, item.Subtotal)
			addQuantityStat(stats.GenderBreakdown, orDefault(item.ProductGender, "unknown"), item.Quantity, item.Subtotal)
		}
	}

	if stats.Overview.TotalSales > 0 {
		stats.Overview.AverageOrderValue = round2(stats.Overview.TotalRevenue / float64(stats.Overview.TotalSales))
	}
	if total := stats.Overview.TotalSales + stats.Overview.TotalCancelled; total > 0 {
		stats.Overview.CancellationRate = round2(float64(stats.Overview.TotalCancelled) / float64(total) * 100)
	}

	stats.TopByQuantity = topProducts(products, func(a, b *ProductStat) bool {
		return a.QuantitySold > b.QuantitySold
	})
	stats.TopByRevenue = topProducts(products, func(a, b *ProductStat) bool {
		return a.Revenue > b.Revenue
	})
	return stats, nil
}

func addMethodStat(m map[string]MethodStat, key string, revenue float64) {
	stat := m[key]
	stat.Count++
	stat.Revenue = round2(stat.Revenue + revenue)
	m[key] = stat
}

func addQuantityStat(m map[string]MethodStat, key string, quantity int, revenue float64) {
	stat := m[key]
	stat.Count += quantity
	stat.Revenue = round2(stat.Revenue + revenue)
	m[key] = stat
}

func topProducts(products map[string]*ProductStat, less func(a, b *ProductStat) bool) []ProductStat {
	ranked := make([]*ProductStat, 0, len(products))
	for _, p := range products {
		ranked = append(ranked, p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if less(ranked[i], ranked[j]) {
			return true
		}
		if less(ranked[j], ranked[i]) {
			return false
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	out := make([]ProductStat, 0, topProductsLimit)
	for _, p := range ranked {
		if len(out) == topProductsLimit {
			break
		}
		out = append(out, *p)
	}
	return out
}

// periodFilter maps a period name to a completed_at lower bound. "today"
// means since UTC midnight; week, month and year are rolling windows.
func periodFilter(period string, now time.Time) (store.SaleFilter, string, error) {
	switch period {
	case "", "all":
		return store.SaleFilter{}, "all", nil
	case "today":
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return store.SaleFilter{Since: midnight}, period, nil
	case "week":
		return store.SaleFilter{Since: now.AddDate(0, 0, -7)}, period, nil
	case "month":
		return store.SaleFilter{Since: now.AddDate(0, 0, -30)}, period, nil
	case "year":
		return store.SaleFilter{Since: now.AddDate(0, 0, -365)}, period, nil
	default:
		return store.SaleFilter{}, "", apperr.NewValidationWithFields("Invalid period",
			map[string]interface{}{"validPeriods": []string{"all", "today", "week", "month", "year"}})
	}
}
