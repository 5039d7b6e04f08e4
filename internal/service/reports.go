package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/exchange"
	"github.com/avc/smm-panel/internal/pricing"
	"github.com/shopspring/decimal"
)

// ProfitView денежные итоги продавца в одном из представлений
type ProfitView struct {
	TotalRevenue int64 `json:"total_revenue"`
	TotalCost    int64 `json:"total_cost"`
	GrossProfit  int64 `json:"gross_profit"`
	Commission   int64 `json:"commission"`
	NetProfit    int64 `json:"net_profit"`
}

// SellerProfit отчёт по завершённым заказам продавца.
// Ledger суммирует сохранённые при создании снимки, Estimate пересчитан по текущему курсу.
type SellerProfit struct {
	SellerID       int64           `json:"seller_id"`
	SellerName     string          `json:"seller_name"`
	CommissionRate float64         `json:"commission_rate"`
	OrderCount     int64           `json:"order_count"`
	TotalCostUSD   decimal.Decimal `json:"total_cost_usd"`
	Ledger         ProfitView      `json:"ledger"`
	Estimate       ProfitView      `json:"estimate"`
}

// SellerProfitsReport отчёт с курсом, использованным для оценки
type SellerProfitsReport struct {
	Rate    float64         `json:"rate"`
	Sellers []*SellerProfit `json:"sellers"`
}

// ReportService строит отчёты по продажам
type ReportService struct {
	users  domain.UserRepository
	orders domain.OrderRepository
	rates  exchange.RateProvider
}

// NewReportService создает новый ReportService
func NewReportService(users domain.UserRepository, orders domain.OrderRepository, rates exchange.RateProvider) *ReportService {
	return &ReportService{users: users, orders: orders, rates: rates}
}

// SellerProfits считает прибыль по активным продавцам с завершёнными заказами,
// по убыванию чистой прибыли в Ledger.
func (s *ReportService) SellerProfits(ctx context.Context) (*SellerProfitsReport, error) {
	sellers, err := s.users.GetActiveSellers(ctx)
	if err != nil {
		return nil, fmt.Errorf("report service: failed to get sellers: %w", err)
	}

	orders, err := s.orders.GetCompletedSellerOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("report service: failed to get completed orders: %w", err)
	}

	bySeller := make(map[int64][]*domain.Order)
	for _, o := range orders {
		if o.SellerID != nil {
			bySeller[*o.SellerID] = append(bySeller[*o.SellerID], o)
		}
	}

	rate := s.rates.Rate(ctx)
	report := &SellerProfitsReport{Rate: rate, Sellers: []*SellerProfit{}}

	for _, seller := range sellers {
		sellerOrders := bySeller[seller.ID]
		if len(sellerOrders) == 0 {
			continue
		}
		report.Sellers = append(report.Sellers, sellerProfit(seller, sellerOrders, rate))
	}

	sort.SliceStable(report.Sellers, func(i, j int) bool {
		return report.Sellers[i].Ledger.NetProfit > report.Sellers[j].Ledger.NetProfit
	})

	return report, nil
}

func sellerProfit(seller *domain.User, orders []*domain.Order, rate float64) *SellerProfit {
	sp := &SellerProfit{
		SellerID:       seller.ID,
		SellerName:     seller.Name,
		CommissionRate: seller.CommissionRate,
		OrderCount:     int64(len(orders)),
	}

	for _, o := range orders {
		sp.TotalCostUSD = sp.TotalCostUSD.Add(o.ProviderCost)

		sp.Ledger.TotalRevenue += o.SalePrice
		sp.Ledger.TotalCost += o.ProviderCostLocal
		sp.Ledger.Commission += o.Commission
		sp.Ledger.NetProfit += o.Profit

		sp.Estimate.TotalRevenue += o.SalePrice
		sp.Estimate.TotalCost += pricing.ProviderCostLocal(o.ProviderCost, rate)
	}
	sp.Ledger.GrossProfit = sp.Ledger.TotalRevenue - sp.Ledger.TotalCost

	sp.Estimate.GrossProfit = pricing.GrossProfit(sp.Estimate.TotalRevenue, sp.Estimate.TotalCost)
	sp.Estimate.Commission = pricing.Commission(sp.Estimate.GrossProfit, seller.CommissionRate)
	sp.Estimate.NetProfit = pricing.NetProfit(sp.Estimate.GrossProfit, sp.Estimate.Commission)

	return sp
}
