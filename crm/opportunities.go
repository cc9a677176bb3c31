package crm

import (
	"context"
	"net/url"

	"github.com/wayhome/wayhome-go/api"
)

// OpportunityStage is the deal pipeline tag. Stages only move forward
// through Advance; the backend rejects skips.
type OpportunityStage string

const (
	StageViewing     OpportunityStage = "viewing"
	StageOffer       OpportunityStage = "offer"
	StageNegotiation OpportunityStage = "negotiation"
	StageAgreed      OpportunityStage = "agreed"
	StageClosedWon   OpportunityStage = "closed_won"
	StageClosedLost  OpportunityStage = "closed_lost"
)

type Opportunity struct {
	ID         string           `json:"id,omitempty"`
	LeadID     string           `json:"lead_id,omitempty"`
	PropertyID string           `json:"property_id,omitempty"`
	AgentID    string           `json:"agent_id,omitempty"`
	Stage      OpportunityStage `json:"stage,omitempty"`
	OfferPrice int64            `json:"offer_price,omitempty"` // minor units
	Currency   string           `json:"currency,omitempty"`
	Notes      string           `json:"notes,omitempty"`
}

type OpportunityFilter struct {
	Stage   OpportunityStage
	AgentID string
	Page    Page
}

func (f OpportunityFilter) query() url.Values {
	query := url.Values{}
	if f.Stage != "" {
		query.Set("stage", string(f.Stage))
	}
	if f.AgentID != "" {
		query.Set("agent_id", f.AgentID)
	}
	return f.Page.apply(query)
}

type OpportunityService struct {
	dispatcher *api.Dispatcher
}

func (s *OpportunityService) List(ctx context.Context, filter OpportunityFilter) (Paged[Opportunity], error) {
	return decodePaged[Opportunity](s.dispatcher.Get(ctx, "/opportunities", filter.query()))
}

func (s *OpportunityService) Create(ctx context.Context, opportunity Opportunity) (*Opportunity, error) {
	return decodeOne[Opportunity](s.dispatcher.Post(ctx, "/opportunities", opportunity))
}

// Advance moves the deal to the given stage.
func (s *OpportunityService) Advance(ctx context.Context, id string, stage OpportunityStage) (*Opportunity, error) {
	body := map[string]string{"stage": string(stage)}
	return decodeOne[Opportunity](s.dispatcher.Put(ctx, "/opportunities/"+url.PathEscape(id)+"/stage", body))
}
