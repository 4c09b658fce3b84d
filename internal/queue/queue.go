package queue

// Queue names, one durable queue per ingestion provider family plus the
// on-demand queue for user-triggered refreshes.
const (
	QueueNycDelta  = "ingestion-nyc-delta"
	QueueHazard    = "ingestion-hazard"
	QueueValuation = "ingestion-valuation"
	QueueCondition = "ingestion-condition"
	QueueOnDemand  = "ingestion-on-demand"
)

// Task type names. Each maps to exactly one handler in the registry built by
// NewMux; there is no dynamic dispatch.
const (
	TypeNycDelta  = "ingestion:nyc-delta"
	TypeHazard    = "ingestion:hazard"
	TypeValuation = "ingestion:valuation"
	TypeCondition = "ingestion:condition"
	TypeOnDemand  = "ingestion:on-demand"
)

// ProviderHazard is the provider key recognized by on-demand refresh jobs.
const ProviderHazard = "hazard"

// SweepPayload targets either every property or a single one. With
// AllProperties set, PropertyID is ignored.
type SweepPayload struct {
	AllProperties bool  `json:"allProperties,omitempty"`
	PropertyID    int64 `json:"propertyId,omitempty"`
}

// OnDemandPayload is a user-triggered refresh for one property. Providers
// narrows which extra orchestrators run; the NYC delta sync always runs.
type OnDemandPayload struct {
	PropertyID int64    `json:"propertyId"`
	Providers  []string `json:"providers,omitempty"`
}

// WantsProvider reports whether the payload asks for the given provider.
// An absent providers list means "all".
func (p OnDemandPayload) WantsProvider(name string) bool {
	if len(p.Providers) == 0 {
		return true
	}
	for _, provider := range p.Providers {
		if provider == name {
			return true
		}
	}
	return false
}
