package api

import "context"

// AuthService maps the authentication endpoints. It is stateless: the
// session store owns the token, this service only moves it over the wire.
type AuthService struct {
	client *Client
}

// NewAuthService creates the auth service.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

// Login exchanges credentials for a session. The client never attaches
// an existing token to this call.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var resp response[LoginResult]
	if err := s.client.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Logout tells the backend to end the session. Callers treat failures
// as best-effort; local teardown never depends on this call succeeding.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.Post(ctx, "/auth/logout", nil, nil)
}

// CurrentUser fetches the profile of the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context) (*User, error) {
	var resp response[User]
	if err := s.client.Get(ctx, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
