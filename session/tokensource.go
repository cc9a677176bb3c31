package session

import (
	"context"

	"golang.org/x/oauth2"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
)

// TokenSource adapts the Manager to oauth2.TokenSource so stock
// oauth2-aware HTTP clients (oauth2.NewClient, Transport) can ride the
// session's refresh lifecycle.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m}
}

type managerTokenSource struct {
	ctx     context.Context
	manager *Manager
}

var _ oauth2.TokenSource = (*managerTokenSource)(nil)

func (ts *managerTokenSource) Token() (*oauth2.Token, error) {
	accessToken := ts.manager.GetValidToken(ts.ctx)
	if accessToken == "" {
		return nil, interrors.ErrNoSession
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      ts.manager.TokenExpiry(),
	}, nil
}
