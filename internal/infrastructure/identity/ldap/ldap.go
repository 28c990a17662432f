// Package ldap authenticates users with a simple bind against the college
// directory and reads their profile attributes.
package ldap

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/infrastructure/identity"
)

const (
	providerName       = "ldap"
	invalidCredentials = "Invalid credentials"
)

var searchAttributes = []string{"uid", "displayName", "mail", "memberOf", "department"}

// Conn is the subset of *ldap.Conn the provider uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a directory connection.
type Dialer func(ctx context.Context) (Conn, error)

// Config describes the directory.
type Config struct {
	URL     string
	BaseDN  string
	Timeout time.Duration
}

// Provider binds as uid=<username>,<BaseDN>.
type Provider struct {
	baseDN  string
	timeout time.Duration
	dial    Dialer
}

// New returns a Provider. A nil dial connects to cfg.URL.
func New(cfg Config, dial Dialer) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = identity.DefaultTimeout
	}
	if dial == nil {
		dial = urlDialer(cfg.URL, timeout)
	}
	return &Provider{baseDN: cfg.BaseDN, timeout: timeout, dial: dial}
}

func urlDialer(url string, timeout time.Duration) Dialer {
	return func(ctx context.Context) (Conn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := ldap.DialURL(url, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
		if err != nil {
			return nil, err
		}
		c.SetTimeout(timeout)
		return conn{c}, nil
	}
}

type conn struct {
	*ldap.Conn
}

func (c conn) Close() error {
	c.Conn.Close()
	return nil
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) Authenticate(ctx context.Context, creds ports.Credentials) domain.IdentityResult {
	user, err := p.authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		return domain.IdentityFailure(invalidCredentials)
	}
	return domain.IdentityResult{Success: true, User: user}
}

func (p *Provider) authenticate(ctx context.Context, username, password string) (*domain.IdentityUser, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("ldap: unusable credentials")
	}

	c, err := p.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("ldap dial: %w", err)
	}
	defer c.Close()

	if err := c.Bind(fmt.Sprintf("uid=%s,%s", ldap.EscapeDN(username), p.baseDN), password); err != nil {
		return nil, fmt.Errorf("ldap bind: %w", err)
	}

	req := ldap.NewSearchRequest(
		p.baseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, int(p.timeout.Seconds()), false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		searchAttributes,
		nil,
	)
	res, err := c.Search(req)
	if err != nil {
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("ldap search: no entry for %s", username)
	}

	e := res.Entries[0]
	return &domain.IdentityUser{
		ID:         identity.FirstNonEmpty(e.GetAttributeValue("uid"), username),
		Name:       e.GetAttributeValue("displayName"),
		Email:      e.GetAttributeValue("mail"),
		Role:       string(domain.RoleFromGroups(e.GetAttributeValues("memberOf"))),
		Department: e.GetAttributeValue("department"),
	}, nil
}
