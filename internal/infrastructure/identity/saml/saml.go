// Package saml accepts signed SAML 2.0 responses posted back by the college
// identity provider.
package saml

import (
	"bytes"
	"compress/flate"
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/infrastructure/identity"
)

const (
	providerName = "saml"

	nsProtocol  = "urn:oasis:names:tc:SAML:2.0:protocol"
	nsAssertion = "urn:oasis:names:tc:SAML:2.0:assertion"
	bindingPOST = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"

	invalidResponse = "Invalid SAML response"
)

// Config describes the college identity provider.
type Config struct {
	// EntryPoint is the IdP single sign-on URL (HTTP-Redirect binding).
	EntryPoint string
	// Issuer identifies the portal to the IdP.
	Issuer string
	// ACSURL is where the IdP posts the response back.
	ACSURL string
	// Certificate is the PEM encoded IdP signing certificate.
	Certificate string
}

// Provider verifies response signatures and maps assertion attributes.
type Provider struct {
	cfg       Config
	validator *dsig.ValidationContext
	now       func() time.Time
}

// New parses the IdP certificate and returns a Provider.
func New(cfg Config) (*Provider, error) {
	block, _ := pem.Decode([]byte(cfg.Certificate))
	if block == nil {
		return nil, errors.New("saml: certificate is not PEM encoded")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("saml: parse certificate: %w", err)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "sceh-portal"
	}

	store := &dsig.MemoryX509CertificateStore{Roots: []*x509.Certificate{cert}}
	return &Provider{
		cfg:       cfg,
		validator: dsig.NewDefaultValidationContext(store),
		now:       time.Now,
	}, nil
}

func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the HTTP-Redirect binding URL for a new AuthnRequest.
// state travels as RelayState and comes back with the response.
func (p *Provider) AuthCodeURL(state string) string {
	req, err := p.authnRequest()
	if err != nil {
		return p.cfg.EntryPoint
	}

	q := url.Values{}
	q.Set("SAMLRequest", req)
	q.Set("RelayState", state)

	sep := "?"
	if strings.Contains(p.cfg.EntryPoint, "?") {
		sep = "&"
	}
	return p.cfg.EntryPoint + sep + q.Encode()
}

func (p *Provider) authnRequest() (string, error) {
	doc := etree.NewDocument()
	req := doc.CreateElement("samlp:AuthnRequest")
	req.CreateAttr("xmlns:samlp", nsProtocol)
	req.CreateAttr("xmlns:saml", nsAssertion)
	req.CreateAttr("ID", "_"+uuid.NewString())
	req.CreateAttr("Version", "2.0")
	req.CreateAttr("IssueInstant", p.now().UTC().Format(time.RFC3339))
	req.CreateAttr("ProtocolBinding", bindingPOST)
	if p.cfg.ACSURL != "" {
		req.CreateAttr("AssertionConsumerServiceURL", p.cfg.ACSURL)
	}
	req.CreateElement("saml:Issuer").SetText(p.cfg.Issuer)

	raw, err := doc.WriteToBytes()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(raw); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (p *Provider) Authenticate(_ context.Context, creds ports.Credentials) domain.IdentityResult {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(creds.SAMLResponse))
	if err != nil || len(raw) == 0 {
		return domain.IdentityFailure(invalidResponse)
	}

	assertion, err := p.verifiedAssertion(raw)
	if err != nil {
		return domain.IdentityFailure(invalidResponse)
	}
	if err := p.checkConditions(assertion); err != nil {
		return domain.IdentityFailure(err.Error())
	}

	attrs := attributes(assertion)
	groups := attrs["groups"]
	if len(groups) == 0 {
		groups = attrs["department"]
	}

	return domain.IdentityResult{
		Success: true,
		User: &domain.IdentityUser{
			ID:         identity.FirstNonEmpty(first(attrs, "studentId"), first(attrs, "employeeId")),
			Name:       first(attrs, "displayName"),
			Email:      first(attrs, "email"),
			Role:       string(domain.RoleFromGroups(groups)),
			Department: first(attrs, "department"),
			Year:       first(attrs, "year"),
		},
	}
}

// verifiedAssertion accepts either a signed Response or an unsigned Response
// carrying a signed Assertion.
func (p *Provider) verifiedAssertion(raw []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "Response" {
		return nil, errors.New("not a SAML response")
	}

	if verified, err := p.validator.Validate(root); err == nil {
		if a := verified.FindElement("./Assertion"); a != nil {
			return a, nil
		}
		return nil, errors.New("response has no assertion")
	}

	a := root.FindElement("./Assertion")
	if a == nil {
		return nil, errors.New("response has no assertion")
	}
	return p.validator.Validate(a)
}

// checkConditions enforces the validity window and every AudienceRestriction.
// An unreadable timestamp fails the assertion.
func (p *Provider) checkConditions(assertion *etree.Element) error {
	cond := assertion.FindElement("./Conditions")
	if cond == nil {
		return nil
	}

	now := p.now()
	if v := cond.SelectAttrValue("NotBefore", ""); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errInvalidWindow
		}
		if now.Before(t) {
			return errors.New("SAML assertion not yet valid")
		}
	}
	if v := cond.SelectAttrValue("NotOnOrAfter", ""); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return errInvalidWindow
		}
		if !now.Before(t) {
			return errors.New("SAML assertion expired")
		}
	}

	for _, r := range cond.SelectElements("AudienceRestriction") {
		if !hasAudience(r, p.cfg.Issuer) {
			return errors.New("SAML assertion is for another audience")
		}
	}
	return nil
}

var errInvalidWindow = errors.New("SAML assertion has an invalid validity window")

func hasAudience(restriction *etree.Element, audience string) bool {
	for _, a := range restriction.SelectElements("Audience") {
		if strings.TrimSpace(a.Text()) == audience {
			return true
		}
	}
	return false
}

func attributes(assertion *etree.Element) map[string][]string {
	out := make(map[string][]string)
	for _, a := range assertion.FindElements(".//AttributeStatement/Attribute") {
		name := a.SelectAttrValue("Name", "")
		for _, v := range a.SelectElements("AttributeValue") {
			out[name] = append(out[name], strings.TrimSpace(v.Text()))
		}
	}
	return out
}

func first(attrs map[string][]string, name string) string {
	if v := attrs[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}
