package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iare/sceh-portal/internal/core/ports"
)

const (
	providerCollege = "college"
	providerOAuth   = "oauth"
	providerSAML    = "saml"
	providerLDAP    = "ldap"
)

type directLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CollegeLogin authenticates against the college user API.
//
// @Summary      College API login
// @Tags         sso
// @Accept       json
// @Produce      json
// @Param        body  body      directLoginRequest  true  "College credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/college-login [post]
func (h *AuthHandler) CollegeLogin(c echo.Context) error {
	return h.directLogin(c, providerCollege)
}

// LDAPLogin authenticates with a directory bind.
//
// @Summary      LDAP login
// @Tags         sso
// @Accept       json
// @Produce      json
// @Param        body  body      directLoginRequest  true  "Directory credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/ldap [post]
func (h *AuthHandler) LDAPLogin(c echo.Context) error {
	return h.directLogin(c, providerLDAP)
}

func (h *AuthHandler) directLogin(c echo.Context, provider string) error {
	var req directLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.authService.LoginWithProvider(c.Request().Context(), provider, ports.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	return h.finish(c, provider, res, err)
}

// OAuthBegin redirects the browser to the OAuth authorization endpoint.
//
// @Summary      Start OAuth login
// @Tags         sso
// @Success      302
// @Failure      404  {object}  map[string]string
// @Router       /auth/oauth/login [get]
func (h *AuthHandler) OAuthBegin(c echo.Context) error {
	return h.beginRedirect(c, providerOAuth)
}

// SAMLBegin redirects the browser to the SAML identity provider.
//
// @Summary      Start SAML login
// @Tags         sso
// @Success      302
// @Failure      404  {object}  map[string]string
// @Router       /auth/saml/login [get]
func (h *AuthHandler) SAMLBegin(c echo.Context) error {
	return h.beginRedirect(c, providerSAML)
}

func (h *AuthHandler) beginRedirect(c echo.Context, provider string) error {
	url, err := h.authService.BeginProviderLogin(c.Request().Context(), provider)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, url)
}

// OAuthCallback completes the authorization code flow.
//
// @Summary      OAuth callback
// @Tags         sso
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "Login state"
// @Success      302
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/oauth/callback [get]
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	if reason := c.QueryParam("error"); reason != "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "OAuth login cancelled: "+reason)
	}

	res, err := h.authService.LoginWithProvider(c.Request().Context(), providerOAuth, ports.Credentials{
		Code:  c.QueryParam("code"),
		State: c.QueryParam("state"),
	})
	return h.finishRedirect(c, providerOAuth, res, err)
}

// SAMLCallback is the assertion consumer service.
//
// @Summary      SAML assertion consumer
// @Tags         sso
// @Accept       x-www-form-urlencoded
// @Param        SAMLResponse  formData  string  true  "Base64 SAML response"
// @Param        RelayState    formData  string  true  "Login state"
// @Success      302
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/saml/callback [post]
func (h *AuthHandler) SAMLCallback(c echo.Context) error {
	res, err := h.authService.LoginWithProvider(c.Request().Context(), providerSAML, ports.Credentials{
		SAMLResponse: c.FormValue("SAMLResponse"),
		State:        c.FormValue("RelayState"),
	})
	return h.finishRedirect(c, providerSAML, res, err)
}
