package crm

import (
	"context"
	"net/url"
	"time"

	"github.com/wayhome/wayhome-go/api"
)

type Transaction struct {
	ID            string    `json:"id,omitempty"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	PropertyID    string    `json:"property_id,omitempty"`
	BuyerName     string    `json:"buyer_name,omitempty"`
	SellerName    string    `json:"seller_name,omitempty"`
	AgentID       string    `json:"agent_id,omitempty"`
	ClosePrice    int64     `json:"close_price,omitempty"` // minor units
	Currency      string    `json:"currency,omitempty"`
	Commission    int64     `json:"commission,omitempty"` // minor units
	ClosedAt      time.Time `json:"closed_at,omitempty"`
}

type TransactionFilter struct {
	AgentID  string
	OfficeID string
	Page     Page
}

func (f TransactionFilter) query() url.Values {
	query := url.Values{}
	if f.AgentID != "" {
		query.Set("agent_id", f.AgentID)
	}
	if f.OfficeID != "" {
		query.Set("office_id", f.OfficeID)
	}
	return f.Page.apply(query)
}

type TransactionService struct {
	dispatcher *api.Dispatcher
}

func (s *TransactionService) List(ctx context.Context, filter TransactionFilter) (Paged[Transaction], error) {
	return decodePaged[Transaction](s.dispatcher.Get(ctx, "/transactions", filter.query()))
}

func (s *TransactionService) Get(ctx context.Context, id string) (*Transaction, error) {
	return decodeOne[Transaction](s.dispatcher.Get(ctx, "/transactions/"+url.PathEscape(id), nil))
}
