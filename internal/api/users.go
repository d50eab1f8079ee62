package api

import (
	"context"
	"net/url"
)

// UserPage is one page of the user collection.
type UserPage struct {
	Users    []User
	Metadata Pagination
}

// UsersService maps the user endpoints.
type UsersService struct {
	client *Client
}

// NewUsersService creates the users service.
func NewUsersService(client *Client) *UsersService {
	return &UsersService{client: client}
}

// List fetches a page of users. A nil params fetches the default page.
func (s *UsersService) List(ctx context.Context, params *ListParams) (*UserPage, error) {
	var resp response[[]User]
	if err := s.client.Get(ctx, "/users", params.Values(), &resp); err != nil {
		return nil, err
	}
	page := &UserPage{Users: resp.Data}
	if resp.Metadata != nil {
		page.Metadata = *resp.Metadata
	}
	return page, nil
}

// Get fetches a single user by id.
func (s *UsersService) Get(ctx context.Context, id string) (*User, error) {
	var resp response[User]
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create creates a user.
func (s *UsersService) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	var resp response[User]
	if err := s.client.Post(ctx, "/users", input, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Update replaces the mutable fields of a user.
func (s *UsersService) Update(ctx context.Context, id string, input UpdateUserInput) (*User, error) {
	var resp response[User]
	if err := s.client.Put(ctx, "/users/"+url.PathEscape(id), input, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes a user.
func (s *UsersService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/users/"+url.PathEscape(id))
}

// ChangePassword sets a new password for the user.
func (s *UsersService) ChangePassword(ctx context.Context, id, newPassword string) error {
	payload := struct {
		NewPassword string `json:"new_password"`
	}{NewPassword: newPassword}
	return s.client.Post(ctx, "/users/"+url.PathEscape(id)+"/change-password", payload, nil)
}
