// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"crypto"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

const (
	// TestProvider defaults, override them with the TestProvider setters.
	TestClientID     = "test-client-id"
	TestClientSecret = "test-client-secret"
	TestRefreshToken = "test-refresh-token"
	TestKeyID        = "test-key"
	TestEmail        = "alice@example.com"
	TestSubject      = "001234.r3qxck2bix9efeczsu3sbmh0k16fatw6.0042"
)

// TestProvider is a local TLS server that behaves like an identity provider
// without a userinfo endpoint: discovery, a token endpoint that only
// understands refresh grants and returns a signed id_token, and a JWKS
// endpoint.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	mu                sync.Mutex
	clientID          string
	clientSecret      string
	expectedRefresh   string
	rotatedRefresh    string
	subject           string
	customClaims      map[string]interface{}
	omitIDToken       bool
	idTokenOnly       bool
	invalidTokenBody  bool
	disableJWKS       bool
	advertiseUserInfo bool
	tokenRequests     int
	jwksRequests      int
	lastTokenForm     map[string]string
	privKey           crypto.PrivateKey
	pubKey            crypto.PublicKey
	alg               jose.SignatureAlgorithm
	keyID             string
	additionalJWKs    []jose.JSONWebKey

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider that's stopped when
// the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		clientID:        TestClientID,
		clientSecret:    TestClientSecret,
		expectedRefresh: TestRefreshToken,
		subject:         TestSubject,
		alg:             jose.ES256,
		keyID:           TestKeyID,
		t:               t,
	}
	p.pubKey, p.privKey = TestGenerateKeys(t)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	cert := p.httpServer.Certificate()
	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the base URL of the provider, which is also its issuer.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// TokenURL returns the provider's token endpoint.
func (p *TestProvider) TokenURL() string { return p.Addr() + "/auth/token" }

// JWKSURL returns the provider's key set endpoint.
func (p *TestProvider) JWKSURL() string { return p.Addr() + "/auth/keys" }

// CACert returns the pem-encoded CA certificate used by the provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns a client that trusts the provider.
func (p *TestProvider) HTTPClient() *http.Client { return p.httpServer.Client() }

// SetClientCreds configures the client id and secret the token endpoint
// accepts.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetExpectedRefreshToken configures the only refresh token the token
// endpoint accepts.
func (p *TestProvider) SetExpectedRefreshToken(rt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedRefresh = rt
}

// SetRotatedRefreshToken makes the token endpoint return a new refresh token.
func (p *TestProvider) SetRotatedRefreshToken(rt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rotatedRefresh = rt
}

// SetSubject sets the "sub" of issued id_tokens.
func (p *TestProvider) SetSubject(sub string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subject = sub
}

// SetCustomClaims lets you set claims to add to (or, with a nil value,
// null out in) issued id_tokens.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetSigningKeys replaces the key used to sign id_tokens and published at
// the JWKS endpoint.
func (p *TestProvider) SetSigningKeys(priv crypto.PrivateKey, pub crypto.PublicKey, alg jose.SignatureAlgorithm, keyID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.privKey = priv
	p.pubKey = pub
	p.alg = alg
	p.keyID = keyID
}

// SigningKeys returns the key used to sign id_tokens.
func (p *TestProvider) SigningKeys() (crypto.PrivateKey, crypto.PublicKey, jose.SignatureAlgorithm, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.privKey, p.pubKey, p.alg, p.keyID
}

// AddJWKs publishes extra keys next to the signing key.
func (p *TestProvider) AddJWKs(keys ...jose.JSONWebKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.additionalJWKs = append(p.additionalJWKs, keys...)
}

// OmitIDTokens forces an error state where the token endpoint does not
// return an id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// IDTokenOnlyResponses makes the token endpoint reply with nothing but the
// id_token.
func (p *TestProvider) IDTokenOnlyResponses() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idTokenOnly = true
}

// InvalidTokenResponses makes the token endpoint reply with a body that
// isn't json.
func (p *TestProvider) InvalidTokenResponses() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidTokenBody = true
}

// DisableJWKS makes the JWKS endpoint return 404.
func (p *TestProvider) DisableJWKS() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableJWKS = true
}

// AdvertiseUserInfo adds a userinfo_endpoint to the discovery document.
func (p *TestProvider) AdvertiseUserInfo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advertiseUserInfo = true
}

// TokenRequests returns how many requests reached the token endpoint.
func (p *TestProvider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// JWKSRequests returns how many requests reached the JWKS endpoint.
func (p *TestProvider) JWKSRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jwksRequests
}

// LastTokenForm returns the form parameters of the last token request.
func (p *TestProvider) LastTokenForm() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTokenForm
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}

	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.t.Helper()

	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := map[string]interface{}{
			"issuer":                                p.Addr(),
			"authorization_endpoint":                p.Addr() + "/auth/authorize",
			"token_endpoint":                        p.TokenURL(),
			"revocation_endpoint":                   p.Addr() + "/auth/revoke",
			"jwks_uri":                              p.JWKSURL(),
			"response_types_supported":              []string{"code", "code id_token"},
			"response_modes_supported":              []string{"query", "fragment", "form_post"},
			"subject_types_supported":               []string{"pairwise"},
			"id_token_signing_alg_values_supported": []string{"RS256", "ES256"},
			"scopes_supported":                      []string{"openid", "email", "name"},
			"token_endpoint_auth_methods_supported": []string{"client_secret_post"},
		}
		if p.advertiseUserInfo {
			reply["userinfo_endpoint"] = p.Addr() + "/auth/userinfo"
		}
		_ = p.writeJSON(w, reply)

	case "/auth/keys":
		p.jwksRequests++
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if p.disableJWKS {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		jwks := jose.JSONWebKeySet{
			Keys: append([]jose.JSONWebKey{TestPublicJWK(p.pubKey, p.alg, p.keyID)}, p.additionalJWKs...),
		}
		_ = p.writeJSON(w, &jwks)

	case "/auth/keys_invalid":
		_, _ = w.Write([]byte("It's not a keyset!"))

	case "/auth/token":
		p.tokenRequests++
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := req.ParseForm(); err != nil {
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "unable to parse form")
			return
		}
		p.lastTokenForm = map[string]string{}
		for k := range req.PostForm {
			p.lastTokenForm[k] = req.PostForm.Get(k)
		}

		switch {
		case req.PostForm.Get("grant_type") != "refresh_token":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "unsupported_grant_type", "")
			return
		case req.PostForm.Get("client_id") != p.clientID || req.PostForm.Get("client_secret") != p.clientSecret:
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_client", "")
			return
		case req.PostForm.Get("refresh_token") != p.expectedRefresh:
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "")
			return
		}

		if p.invalidTokenBody {
			_, _ = w.Write([]byte("<html>not json</html>"))
			return
		}

		now := time.Now()
		claims := map[string]interface{}{
			"iss":            p.Addr(),
			"aud":            p.clientID,
			"sub":            p.subject,
			"iat":            now.Unix(),
			"exp":            now.Add(5 * time.Minute).Unix(),
			"email":          TestEmail,
			"email_verified": "true",
		}
		for k, v := range p.customClaims {
			claims[k] = v
		}

		reply := map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if p.idTokenOnly {
			reply = map[string]interface{}{}
		}
		if !p.omitIDToken {
			reply["id_token"] = TestSignJWT(p.t, p.privKey, p.alg, p.keyID, claims)
		}
		if p.rotatedRefresh != "" {
			reply["refresh_token"] = p.rotatedRefresh
		}
		_ = p.writeJSON(w, reply)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
