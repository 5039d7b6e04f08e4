package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avc/smm-panel/internal/pricing"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultPrimaryURL основной источник курса (CDN jsDelivr)
	DefaultPrimaryURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/usd.json"
	// DefaultMirrorURL зеркало на Cloudflare Pages
	DefaultMirrorURL = "https://latest.currency-api.pages.dev/v1/currencies/usd.json"
	// DefaultFallbackRate консервативный курс на случай недоступности обоих источников
	DefaultFallbackRate = 950.0
	DefaultCurrency     = "clp"
	DefaultTTL          = time.Hour
	DefaultFailureTTL   = time.Minute
	DefaultTimeout      = 10 * time.Second
)

const refreshKey = "usd-rate"

// RateProvider возвращает курс: единиц локальной валюты за 1 USD.
// Реализации никогда не возвращают ошибку.
type RateProvider interface {
	Rate(ctx context.Context) float64
}

// Config настройки CachedRateProvider
type Config struct {
	PrimaryURL   string
	MirrorURL    string
	Currency     string
	FallbackRate float64
	TTL          time.Duration
	FailureTTL   time.Duration // Через сколько повторить запрос после неудачи
	Timeout      time.Duration
}

func (c *Config) setDefaults() {
	if c.PrimaryURL == "" {
		c.PrimaryURL = DefaultPrimaryURL
	}
	if c.MirrorURL == "" {
		c.MirrorURL = DefaultMirrorURL
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	c.Currency = strings.ToLower(c.Currency)
	if c.FallbackRate <= 0 {
		c.FallbackRate = DefaultFallbackRate
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.FailureTTL <= 0 {
		c.FailureTTL = DefaultFailureTTL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// CachedRateProvider кеширует курс и обновляет его лениво.
// Пока идёт обновление, вызывающие получают предыдущее значение.
type CachedRateProvider struct {
	cfg    Config
	client *resty.Client
	logger *zap.Logger
	group  singleflight.Group
	now    func() time.Time

	mu        sync.RWMutex
	rate      float64 // 0, пока ни один источник не ответил
	expiresAt time.Time
}

// NewCachedRateProvider создает новый CachedRateProvider
func NewCachedRateProvider(cfg Config, logger *zap.Logger) *CachedRateProvider {
	cfg.setDefaults()
	return &CachedRateProvider{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
		now:    time.Now,
	}
}

// Rate возвращает курс из кеша, при необходимости запуская обновление
func (p *CachedRateProvider) Rate(ctx context.Context) float64 {
	p.mu.RLock()
	rate, expiresAt := p.rate, p.expiresAt
	p.mu.RUnlock()

	if rate > 0 {
		if p.now().After(expiresAt) {
			// Обновляем в фоне, вызывающий получает устаревшее значение
			p.group.DoChan(refreshKey, p.refresh)
		}
		return rate
	}

	if !expiresAt.IsZero() && !p.now().After(expiresAt) {
		// Источники недавно не ответили, не долбим их на каждом вызове
		return p.cfg.FallbackRate
	}

	select {
	case res := <-p.group.DoChan(refreshKey, p.refresh):
		return res.Val.(float64)
	case <-ctx.Done():
		return p.cfg.FallbackRate
	}
}

// refresh опрашивает основной источник, затем зеркало
func (p *CachedRateProvider) refresh() (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*p.cfg.Timeout)
	defer cancel()

	for _, url := range []string{p.cfg.PrimaryURL, p.cfg.MirrorURL} {
		rate, err := p.fetch(ctx, url)
		if err != nil {
			p.logger.Warn("exchange rate source failed", zap.String("url", url), zap.Error(err))
			continue
		}

		p.mu.Lock()
		p.rate = rate
		p.expiresAt = p.now().Add(p.cfg.TTL)
		p.mu.Unlock()

		p.logger.Debug("exchange rate refreshed", zap.String("currency", p.cfg.Currency), zap.Float64("rate", rate))
		return rate, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresAt = p.now().Add(p.cfg.FailureTTL)

	// Последний успешно полученный курс точнее статического значения
	if p.rate > 0 {
		p.logger.Warn("all exchange rate sources failed, keeping last known rate", zap.Float64("rate", p.rate))
		return p.rate, nil
	}

	p.logger.Warn("all exchange rate sources failed, using fallback rate", zap.Float64("rate", p.cfg.FallbackRate))
	return p.cfg.FallbackRate, nil
}

type ratesPayload struct {
	USD map[string]float64 `json:"usd"`
}

func (p *CachedRateProvider) fetch(ctx context.Context, url string) (float64, error) {
	resp, err := p.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return 0, fmt.Errorf("exchange: failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("exchange: unexpected status code: %d", resp.StatusCode())
	}

	var payload ratesPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return 0, fmt.Errorf("exchange: failed to decode response: %w", err)
	}

	rate, ok := payload.USD[p.cfg.Currency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("exchange: %s rate not found", p.cfg.Currency)
	}

	return rate, nil
}

// StaticRateProvider всегда возвращает один и тот же курс
type StaticRateProvider float64

// Rate реализует RateProvider
func (s StaticRateProvider) Rate(context.Context) float64 {
	return float64(s)
}

// Convert переводит стоимость в USD в локальные единицы по текущему курсу.
// Возвращает сумму и использованный курс, чтобы их можно было сохранить вместе.
func Convert(ctx context.Context, p RateProvider, usd decimal.Decimal) (int64, float64) {
	rate := p.Rate(ctx)
	return pricing.ProviderCostLocal(usd, rate), rate
}
