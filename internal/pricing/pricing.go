// Package pricing содержит чистые функции расчёта себестоимости, комиссии и прибыли.
//
// Все суммы в локальной валюте целые. Округление одно для всех величин:
// половина округляется вверх (к +∞), и каждая величина округляется ровно один раз,
// в момент первого вычисления.
package pricing

import (
	"github.com/shopspring/decimal"
)

// SuggestedMarkup наценка, с которой синхронизация каталога предлагает цену продажи
var SuggestedMarkup = decimal.NewFromFloat(1.5)

var (
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
)

// RoundHalfUp округляет до целого, половину вверх
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// ProviderCostLocal переводит стоимость провайдера из USD в локальную валюту
func ProviderCostLocal(unitCostUSD decimal.Decimal, rate float64) int64 {
	return RoundHalfUp(unitCostUSD.Mul(decimal.NewFromFloat(rate)))
}

// GrossProfit валовая прибыль: цена продажи минус себестоимость
func GrossProfit(salePrice, providerCostLocal int64) int64 {
	return salePrice - providerCostLocal
}

// Commission комиссия продавца в процентах от валовой прибыли
func Commission(grossProfit int64, commissionRatePercent float64) int64 {
	return RoundHalfUp(decimal.NewFromInt(grossProfit).
		Mul(decimal.NewFromFloat(commissionRatePercent)).
		Div(hundred))
}

// NetProfit чистая прибыль после выплаты комиссии
func NetProfit(grossProfit, commission int64) int64 {
	return grossProfit - commission
}

// SuggestedSalePrice цена продажи по умолчанию для новой услуги из каталога
func SuggestedSalePrice(unitCostUSD decimal.Decimal, rate float64) int64 {
	return RoundHalfUp(unitCostUSD.Mul(decimal.NewFromFloat(rate)).Mul(SuggestedMarkup))
}

// Breakdown снимок денежных величин одной продажи
type Breakdown struct {
	SalePrice         int64           `json:"sale_price"`
	ProviderCostUSD   decimal.Decimal `json:"provider_cost_usd"`
	ProviderCostLocal int64           `json:"provider_cost_local"`
	GrossProfit       int64           `json:"gross_profit"`
	Commission        int64           `json:"commission"`
	NetProfit         int64           `json:"net_profit"`
	Rate              float64         `json:"rate"`
}

// Calculate считает полный снимок продажи по курсу rate
func Calculate(salePrice int64, unitCostUSD decimal.Decimal, rate, commissionRatePercent float64) Breakdown {
	costLocal := ProviderCostLocal(unitCostUSD, rate)
	gross := GrossProfit(salePrice, costLocal)
	commission := Commission(gross, commissionRatePercent)

	return Breakdown{
		SalePrice:         salePrice,
		ProviderCostUSD:   unitCostUSD,
		ProviderCostLocal: costLocal,
		GrossProfit:       gross,
		Commission:        commission,
		NetProfit:         NetProfit(gross, commission),
		Rate:              rate,
	}
}
