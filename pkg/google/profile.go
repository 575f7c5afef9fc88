package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Profile is the part of the Google account a notebook user is created from.
type Profile struct {
	Subject string
	Email   string
	Name    string
}

type ProfileFetcher func(ctx context.Context, tokenSource oauth2.TokenSource) (Profile, error)

// FetchUserinfo reads the signed-in account from the Google userinfo endpoint.
func FetchUserinfo(ctx context.Context, tokenSource oauth2.TokenSource) (Profile, error) {
	service, err := oauth2api.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return Profile{}, fmt.Errorf("unable to create Google oauth2 service: %w", err)
	}
	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, fmt.Errorf("unable to retrieve Google userinfo: %w", err)
	}
	return Profile{Subject: info.Id, Email: info.Email, Name: info.Name}, nil
}
