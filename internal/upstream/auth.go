package upstream

import (
	"context"
	"errors"
	"net/http"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// AuthAPI talks to /auth on the backend.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

var _ ports.AuthAPI = (*AuthAPI)(nil)

// Login never carries a bearer token and never triggers the 401 hook: a wrong
// password must not tear down an unrelated session. A 401 comes back as
// domain.InvalidCredentials with the backend's reason.
func (a *AuthAPI) Login(ctx context.Context, creds ports.LoginCredentials) (*ports.LoginResult, error) {
	resp, err := a.c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      creds,
		SkipAuth:  true,
		SkipDedup: true,
		SkipHooks: true,
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindAuthentication {
			return nil, domain.InvalidCredentials(de.Detail)
		}
		return nil, err
	}
	res, err := decodeInto[ports.LoginResult](resp)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, &domain.Error{Kind: domain.KindUnknown, Status: resp.Status, Message: "login response carried no access token"}
	}
	return res, nil
}

func (a *AuthAPI) Refresh(ctx context.Context) (string, error) {
	resp, err := a.c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/refresh"})
	if err != nil {
		return "", err
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &domain.Error{Kind: domain.KindUnknown, Status: resp.Status, Message: "refresh response carried no access token"}
	}
	return out.AccessToken, nil
}

func (a *AuthAPI) Me(ctx context.Context) (*domain.User, error) {
	resp, err := a.c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me"})
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.User](resp)
}
