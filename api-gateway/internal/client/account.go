package client

import (
	"context"
	"net/http"
	"net/url"
)

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AccountClient calls account-service.
type AccountClient struct {
	*Client
}

func NewAccountClient(baseURL string, httpClient *http.Client) *AccountClient {
	return &AccountClient{Client: New(baseURL, httpClient)}
}

func (c *AccountClient) Register(ctx context.Context, in RegisterInput) (Envelope, error) {
	return c.do(ctx, http.MethodPost, "/v1/users", nil, in)
}

func (c *AccountClient) Login(ctx context.Context, email, password string) (Envelope, error) {
	return c.do(ctx, http.MethodPost, "/v1/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *AccountClient) FindUser(ctx context.Context, userID string) (Envelope, error) {
	return c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, nil)
}

func (c *AccountClient) AddFavorite(ctx context.Context, apartmentID string) (Envelope, error) {
	return c.do(ctx, http.MethodPost, "/v1/favorites", nil, map[string]string{"apartmentId": apartmentID})
}
