package provider

import (
	"encoding/json"
	"strings"

	"github.com/avc/smm-panel/internal/domain"
)

// Dialect описывает, как конкретная панель называет поля каталога услуг.
// Остальные действия (balance, add, status) у известных панелей совпадают.
type Dialect interface {
	Name() string
	decodeServices(body []byte) ([]RemoteService, error)
}

// DefaultDialect стандартный SMM panel API v2: service, rate
type DefaultDialect struct{}

func (DefaultDialect) Name() string { return string(domain.ProviderTypeDefault) }

type defaultServicePayload struct {
	Service  flexString `json:"service"`
	Name     flexString `json:"name"`
	Type     flexString `json:"type"`
	Rate     flexString `json:"rate"`
	Min      flexString `json:"min"`
	Max      flexString `json:"max"`
	Category flexString `json:"category"`
	Refill   flexBool   `json:"refill"`
	Cancel   flexBool   `json:"cancel"`
}

func (DefaultDialect) decodeServices(body []byte) ([]RemoteService, error) {
	var payload []defaultServicePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	services := make([]RemoteService, 0, len(payload))
	for _, p := range payload {
		services = append(services, RemoteService{
			RemoteServiceID: strings.TrimSpace(p.Service.String()),
			Name:            strings.TrimSpace(p.Name.String()),
			UnitType:        p.Type.String(),
			Rate:            p.Rate.String(),
			Min:             p.Min.String(),
			Max:             p.Max.String(),
			Category:        strings.TrimSpace(p.Category.String()),
			RefillSupported: bool(p.Refill),
			CancelSupported: bool(p.Cancel),
		})
	}

	return services, nil
}

// PerfectPanelDialect панели, отдающие id и price вместо service и rate
type PerfectPanelDialect struct{}

func (PerfectPanelDialect) Name() string { return string(domain.ProviderTypePerfectPanel) }

type perfectPanelServicePayload struct {
	ID       flexString `json:"id"`
	Name     flexString `json:"name"`
	Type     flexString `json:"type"`
	Price    flexString `json:"price"`
	Min      flexString `json:"min"`
	Max      flexString `json:"max"`
	Category flexString `json:"category"`
	Refill   flexBool   `json:"refill"`
	Cancel   flexBool   `json:"cancel"`
}

func (PerfectPanelDialect) decodeServices(body []byte) ([]RemoteService, error) {
	var payload []perfectPanelServicePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	services := make([]RemoteService, 0, len(payload))
	for _, p := range payload {
		services = append(services, RemoteService{
			RemoteServiceID: strings.TrimSpace(p.ID.String()),
			Name:            strings.TrimSpace(p.Name.String()),
			UnitType:        p.Type.String(),
			Rate:            p.Price.String(),
			Min:             p.Min.String(),
			Max:             p.Max.String(),
			Category:        strings.TrimSpace(p.Category.String()),
			RefillSupported: bool(p.Refill),
			CancelSupported: bool(p.Cancel),
		})
	}

	return services, nil
}

func dialectFor(t domain.ProviderType) Dialect {
	switch t {
	case domain.ProviderTypePerfectPanel:
		return PerfectPanelDialect{}
	default:
		return DefaultDialect{}
	}
}

// KnownType сообщает, поддерживается ли тип провайдера
func KnownType(t domain.ProviderType) bool {
	return t == domain.ProviderTypeDefault || t == domain.ProviderTypePerfectPanel
}
