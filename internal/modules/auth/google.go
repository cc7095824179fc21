package auth

import (
	"context"
	"fmt"

	"cleanservice/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleProvider runs the Authorization Code flow.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*GoogleIdentity, error)
}

type googleProvider struct {
	oauth    *oauth2.Config
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleProvider returns nil when Google sign-in is not configured.
func NewGoogleProvider(cfg config.GoogleConfig) GoogleProvider {
	if !cfg.Enabled() {
		return nil
	}
	return &googleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		clientID: cfg.ClientID,
		validate: idtoken.Validate,
	}
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Identify exchanges code for tokens and verifies the ID token's signature,
// audience, expiry and issuer.
func (p *googleProvider) Identify(ctx context.Context, code string) (*GoogleIdentity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrInvalidGoogleToken
	}

	payload, err := p.validate(ctx, raw, p.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	return identityFromPayload(payload)
}

func identityFromPayload(payload *idtoken.Payload) (*GoogleIdentity, error) {
	if !googleIssuers[payload.Issuer] {
		return nil, ErrInvalidGoogleToken
	}
	id := &GoogleIdentity{Subject: payload.Subject}
	id.Email, _ = payload.Claims["email"].(string)
	id.Name, _ = payload.Claims["name"].(string)
	switch v := payload.Claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	if id.Email == "" {
		return nil, ErrInvalidGoogleToken
	}
	return id, nil
}
