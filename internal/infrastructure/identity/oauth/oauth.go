// Package oauth authenticates users through the college OAuth2 server using
// the authorization code flow and its userinfo endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/infrastructure/identity"
)

const providerName = "oauth"

// DefaultScopes are requested when Config.Scopes is empty.
var DefaultScopes = []string{"profile", "email", "student_info"}

// Config describes the college OAuth2 client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Provider exchanges authorization codes and reads the user profile.
type Provider struct {
	conf        *oauth2.Config
	userInfoURL string
	client      *http.Client
	log         zerolog.Logger
}

// New returns a Provider. client is used for token and userinfo calls; nil
// means a client with identity.DefaultTimeout.
func New(cfg Config, client *http.Client, log zerolog.Logger) *Provider {
	if client == nil {
		client = &http.Client{Timeout: identity.DefaultTimeout}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &Provider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		client:      client,
		log:         log,
	}
}

func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL is where the browser is sent to start a login.
func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

type userInfo struct {
	StudentID  identity.FlexString `json:"student_id"`
	EmployeeID identity.FlexString `json:"employee_id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Groups     []string            `json:"groups"`
	Department string              `json:"department"`
	Year       identity.FlexString `json:"year"`
}

func (p *Provider) Authenticate(ctx context.Context, creds ports.Credentials) domain.IdentityResult {
	if creds.Code == "" {
		return domain.IdentityFailure("missing authorization code")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.conf.Exchange(ctx, creds.Code)
	if err != nil {
		p.log.Warn().Err(err).Msg("oauth token exchange failed")
		return domain.IdentityFailure("OAuth token exchange failed")
	}

	info, err := p.fetchUserInfo(ctx, tok)
	if err != nil {
		p.log.Error().Err(err).Msg("oauth userinfo failed")
		return domain.IdentityFailure("OAuth user info unavailable")
	}

	return domain.IdentityResult{
		Success: true,
		User: &domain.IdentityUser{
			ID:         identity.FirstNonEmpty(string(info.StudentID), string(info.EmployeeID)),
			Name:       info.Name,
			Email:      info.Email,
			Role:       string(domain.RoleFromGroups(info.Groups)),
			Department: info.Department,
			Year:       string(info.Year),
		},
		Token: tok.AccessToken,
	}
}

func (p *Provider) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("invalid userinfo response: %w", err)
	}
	return &info, nil
}
