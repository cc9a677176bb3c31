// Package crm exposes the Wayhome backend's brokerage resources as typed
// services over the request dispatcher. Every method returns (value, error);
// the error is drawn from the client taxonomy so call sites can branch on
// interrors.ErrUnauthorized without inspecting statuses.
package crm

import (
	"net/url"
	"strconv"

	"github.com/wayhome/wayhome-go/api"
)

// Client bundles one service per backend aggregate.
type Client struct {
	Properties    *PropertyService
	Leads         *LeadService
	Opportunities *OpportunityService
	Transactions  *TransactionService
	Offices       *OfficeService
	Documents     *DocumentService
}

func NewClient(dispatcher *api.Dispatcher) *Client {
	return &Client{
		Properties:    &PropertyService{dispatcher: dispatcher},
		Leads:         &LeadService{dispatcher: dispatcher},
		Opportunities: &OpportunityService{dispatcher: dispatcher},
		Transactions:  &TransactionService{dispatcher: dispatcher},
		Offices:       &OfficeService{dispatcher: dispatcher},
		Documents:     &DocumentService{dispatcher: dispatcher},
	}
}

// Page selects one page of a listing. The zero value means the backend's
// defaults.
type Page struct {
	Number int
	Size   int
}

func (p Page) apply(query url.Values) url.Values {
	if query == nil {
		query = url.Values{}
	}
	if p.Number > 0 {
		query.Set("page", strconv.Itoa(p.Number))
	}
	if p.Size > 0 {
		query.Set("page_size", strconv.Itoa(p.Size))
	}
	return query
}

// Paged wraps a page of items together with the listing totals.
type Paged[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"page_size"`
}

func decodePaged[T any](result api.Result) (Paged[T], error) {
	var page Paged[T]
	if !result.Success {
		return page, result.Err()
	}
	if err := result.DecodeInto(&page); err != nil {
		return Paged[T]{}, err
	}
	return page, nil
}

func decodeOne[T any](result api.Result) (*T, error) {
	if !result.Success {
		return nil, result.Err()
	}
	var value T
	if err := result.DecodeInto(&value); err != nil {
		return nil, err
	}
	return &value, nil
}
