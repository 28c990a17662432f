// Package identity holds helpers shared by the external identity provider
// adapters in its subpackages.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/iare/sceh-portal/internal/api/metrics"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

// DefaultTimeout bounds a single call to an external identity system.
const DefaultTimeout = 10 * time.Second

// FlexString decodes a JSON string or number into a string. College systems
// disagree on whether fields like the academic year are numeric.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Instrument wraps p so every Authenticate call is timed. Redirect based
// providers keep their AuthCodeURL method.
func Instrument(p ports.IdentityProvider) ports.IdentityProvider {
	base := instrumented{next: p}
	if rp, ok := p.(ports.RedirectProvider); ok {
		return instrumentedRedirect{instrumented: base, rp: rp}
	}
	return base
}

type instrumented struct {
	next ports.IdentityProvider
}

func (i instrumented) Name() string {
	return i.next.Name()
}

func (i instrumented) Authenticate(ctx context.Context, creds ports.Credentials) domain.IdentityResult {
	start := time.Now()
	res := i.next.Authenticate(ctx, creds)

	result := "failure"
	if res.Success {
		result = "success"
	}
	metrics.IdentityProviderDuration.WithLabelValues(i.next.Name(), result).Observe(time.Since(start).Seconds())
	return res
}

type instrumentedRedirect struct {
	instrumented
	rp ports.RedirectProvider
}

func (i instrumentedRedirect) AuthCodeURL(state string) string {
	return i.rp.AuthCodeURL(state)
}
