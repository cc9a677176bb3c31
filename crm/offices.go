package crm

import (
	"context"
	"net/url"

	"github.com/wayhome/wayhome-go/api"
	"github.com/wayhome/wayhome-go/users"
)

type Office struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type OfficeService struct {
	dispatcher *api.Dispatcher
}

func (s *OfficeService) List(ctx context.Context, page Page) (Paged[Office], error) {
	return decodePaged[Office](s.dispatcher.Get(ctx, "/offices", page.apply(nil)))
}

func (s *OfficeService) Get(ctx context.Context, id string) (*Office, error) {
	return decodeOne[Office](s.dispatcher.Get(ctx, "/offices/"+url.PathEscape(id), nil))
}

// Agents lists the users attached to an office.
func (s *OfficeService) Agents(ctx context.Context, id string, page Page) (Paged[users.User], error) {
	return decodePaged[users.User](s.dispatcher.Get(ctx, "/offices/"+url.PathEscape(id)+"/agents", page.apply(nil)))
}
