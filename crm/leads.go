package crm

import (
	"context"
	"net/url"

	"github.com/wayhome/wayhome-go/api"
)

// LeadStatus is the intake pipeline tag.
type LeadStatus string

const (
	LeadNew          LeadStatus = "new"
	LeadContacted    LeadStatus = "contacted"
	LeadQualified    LeadStatus = "qualified"
	LeadConverted    LeadStatus = "converted"
	LeadDisqualified LeadStatus = "disqualified"
)

type Lead struct {
	ID         string     `json:"id,omitempty"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name,omitempty"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Source     string     `json:"source,omitempty"` // website, referral, portal
	Status     LeadStatus `json:"status,omitempty"`
	PropertyID string     `json:"property_id,omitempty"`
	AgentID    string     `json:"agent_id,omitempty"`
	OfficeID   string     `json:"office_id,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type LeadFilter struct {
	Status   LeadStatus
	AgentID  string
	OfficeID string
	Page     Page
}

func (f LeadFilter) query() url.Values {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", string(f.Status))
	}
	if f.AgentID != "" {
		query.Set("agent_id", f.AgentID)
	}
	if f.OfficeID != "" {
		query.Set("office_id", f.OfficeID)
	}
	return f.Page.apply(query)
}

type LeadService struct {
	dispatcher *api.Dispatcher
}

func (s *LeadService) List(ctx context.Context, filter LeadFilter) (Paged[Lead], error) {
	return decodePaged[Lead](s.dispatcher.Get(ctx, "/leads", filter.query()))
}

func (s *LeadService) Create(ctx context.Context, lead Lead) (*Lead, error) {
	return decodeOne[Lead](s.dispatcher.Post(ctx, "/leads", lead))
}

// Assign hands the lead to an agent.
func (s *LeadService) Assign(ctx context.Context, id, agentID string) (*Lead, error) {
	body := map[string]string{"agent_id": agentID}
	return decodeOne[Lead](s.dispatcher.Put(ctx, "/leads/"+url.PathEscape(id)+"/assign", body))
}

func (s *LeadService) UpdateStatus(ctx context.Context, id string, status LeadStatus) (*Lead, error) {
	body := map[string]string{"status": string(status)}
	return decodeOne[Lead](s.dispatcher.Put(ctx, "/leads/"+url.PathEscape(id)+"/status", body))
}
