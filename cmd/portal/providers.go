package main

import (
	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/infrastructure/identity"
	"github.com/iare/sceh-portal/internal/infrastructure/identity/collegeapi"
	"github.com/iare/sceh-portal/internal/infrastructure/identity/ldap"
	"github.com/iare/sceh-portal/internal/infrastructure/identity/oauth"
	"github.com/iare/sceh-portal/internal/infrastructure/identity/saml"
	"github.com/iare/sceh-portal/internal/pkg/config"
)

// buildProviders returns an instrumented adapter for every identity provider
// that has enough configuration to run.
func buildProviders(cfg *config.Config, log zerolog.Logger) ([]ports.IdentityProvider, error) {
	var out []ports.IdentityProvider

	if cfg.College.Enabled() {
		out = append(out, collegeapi.New(collegeapi.Config{
			BaseURL: cfg.College.BaseURL,
			APIKey:  cfg.College.APIKey,
			Timeout: cfg.College.Timeout,
		}, nil, log.With().Str("provider", "college").Logger()))
	}

	if cfg.OAuth.Enabled() {
		out = append(out, oauth.New(oauth.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			UserInfoURL:  cfg.OAuth.UserInfoURL,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       cfg.OAuth.Scopes,
		}, nil, log.With().Str("provider", "oauth").Logger()))
	}

	if cfg.SAML.Enabled() {
		cert, err := cfg.SAML.SAMLCertificate()
		if err != nil {
			return nil, err
		}
		p, err := saml.New(saml.Config{
			EntryPoint:  cfg.SAML.EntryPoint,
			Issuer:      cfg.SAML.Issuer,
			ACSURL:      cfg.PublicURL + "/auth/saml/callback",
			Certificate: cert,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if cfg.LDAP.Enabled() {
		out = append(out, ldap.New(ldap.Config{
			URL:     cfg.LDAP.URL,
			BaseDN:  cfg.LDAP.BaseDN,
			Timeout: cfg.LDAP.Timeout,
		}, nil))
	}

	for i, p := range out {
		out[i] = identity.Instrument(p)
	}
	return out, nil
}
