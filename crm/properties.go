package crm

import (
	"context"
	"net/url"

	"github.com/wayhome/wayhome-go/api"
)

// PropertyStatus is the listing lifecycle tag.
type PropertyStatus string

const (
	PropertyDraft     PropertyStatus = "draft"
	PropertyActive    PropertyStatus = "active"
	PropertyReserved  PropertyStatus = "reserved"
	PropertySold      PropertyStatus = "sold"
	PropertyWithdrawn PropertyStatus = "withdrawn"
)

type Property struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Address     string         `json:"address,omitempty"`
	City        string         `json:"city,omitempty"`
	Price       int64          `json:"price"` // minor units of Currency
	Currency    string         `json:"currency,omitempty"`
	Bedrooms    int            `json:"bedrooms,omitempty"`
	Bathrooms   int            `json:"bathrooms,omitempty"`
	AreaSqm     float64        `json:"area_sqm,omitempty"`
	Status      PropertyStatus `json:"status,omitempty"`
	OfficeID    string         `json:"office_id,omitempty"`
	AgentID     string         `json:"agent_id,omitempty"`
}

// PropertyFilter narrows a listing query. Zero fields are omitted.
type PropertyFilter struct {
	Status   PropertyStatus
	OfficeID string
	AgentID  string
	City     string
	Page     Page
}

func (f PropertyFilter) query() url.Values {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", string(f.Status))
	}
	if f.OfficeID != "" {
		query.Set("office_id", f.OfficeID)
	}
	if f.AgentID != "" {
		query.Set("agent_id", f.AgentID)
	}
	if f.City != "" {
		query.Set("city", f.City)
	}
	return f.Page.apply(query)
}

type PropertyService struct {
	dispatcher *api.Dispatcher
}

func (s *PropertyService) List(ctx context.Context, filter PropertyFilter) (Paged[Property], error) {
	return decodePaged[Property](s.dispatcher.Get(ctx, "/properties", filter.query()))
}

func (s *PropertyService) Get(ctx context.Context, id string) (*Property, error) {
	return decodeOne[Property](s.dispatcher.Get(ctx, "/properties/"+url.PathEscape(id), nil))
}

func (s *PropertyService) Create(ctx context.Context, property Property) (*Property, error) {
	return decodeOne[Property](s.dispatcher.Post(ctx, "/properties", property))
}

func (s *PropertyService) Update(ctx context.Context, id string, property Property) (*Property, error) {
	return decodeOne[Property](s.dispatcher.Put(ctx, "/properties/"+url.PathEscape(id), property))
}

func (s *PropertyService) Delete(ctx context.Context, id string) error {
	return s.dispatcher.Delete(ctx, "/properties/"+url.PathEscape(id)).Err()
}
