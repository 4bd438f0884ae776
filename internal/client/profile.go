package client

import (
	"context"

	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/sirupsen/logrus"
)

// TokenSource yields the current access token, empty when signed out.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// ProfileFetcher loads profiles through the API on behalf of the signed in
// identity. It never returns an error: any failure yields nil.
type ProfileFetcher struct {
	client *Client
	tokens TokenSource
	log    logrus.FieldLogger
}

func NewProfileFetcher(c *Client, tokens TokenSource, log logrus.FieldLogger) *ProfileFetcher {
	return &ProfileFetcher{client: c, tokens: tokens, log: log}
}

func (f *ProfileFetcher) FetchProfile(ctx context.Context, identity *models.Identity) *models.Profile {
	if identity == nil {
		return nil
	}

	token := f.tokens.AccessToken(ctx)
	if token == "" {
		return nil
	}

	me, err := f.client.Me(ctx, token)
	if err != nil {
		f.log.WithError(err).WithField("profile_id", identity.ID).Warn("profile fetch failed")
		return nil
	}
	if me.Profile == nil || me.Profile.ID != identity.ID {
		f.log.WithField("profile_id", identity.ID).Warn("profile fetch returned another identity")
		return nil
	}
	return me.Profile
}
