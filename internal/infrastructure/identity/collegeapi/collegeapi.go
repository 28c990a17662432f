// Package collegeapi authenticates students and staff against the college's
// REST login API.
package collegeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/infrastructure/identity"
)

const (
	providerName   = "college"
	maxErrorBody   = 4 << 10
	headerAPIKey   = "X-API-Key"
	failureDefault = "Authentication failed"
	failureNoAPI   = "college API unavailable"
)

// Config holds the college API endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Provider calls POST {BaseURL}/auth/login.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// New returns a Provider. A nil client gets one with cfg.Timeout.
func New(cfg Config, client *http.Client, log zerolog.Logger) *Provider {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = identity.DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		log:     log,
	}
}

func (p *Provider) Name() string {
	return providerName
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID       identity.FlexString `json:"user_id"`
	FullName     string              `json:"full_name"`
	Email        string              `json:"email"`
	Role         string              `json:"role"`
	Department   string              `json:"department"`
	AcademicYear identity.FlexString `json:"academic_year"`
	Section      string              `json:"section"`
	AccessToken  string              `json:"access_token"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (p *Provider) Authenticate(ctx context.Context, creds ports.Credentials) domain.IdentityResult {
	if creds.Username == "" || creds.Password == "" {
		return domain.IdentityFailure("username and password are required")
	}

	body, err := json.Marshal(loginRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return domain.IdentityFailure(failureDefault)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return domain.IdentityFailure(failureDefault)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error().Err(err).Msg("college API request failed")
		return domain.IdentityFailure(failureNoAPI)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.IdentityFailure(upstreamError(resp.Body))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		p.log.Warn().Err(err).Msg("college API returned an undecodable body")
		return domain.IdentityFailure("invalid response from college API")
	}

	return domain.IdentityResult{
		Success: true,
		User: &domain.IdentityUser{
			ID:         string(lr.UserID),
			Name:       lr.FullName,
			Email:      lr.Email,
			Role:       lr.Role,
			Department: lr.Department,
			Year:       string(lr.AcademicYear),
			Section:    lr.Section,
		},
		Token: lr.AccessToken,
	}
}

func upstreamError(r io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&er); err != nil {
		return failureDefault
	}
	return identity.FirstNonEmpty(er.Error, er.Message, failureDefault)
}
