// Package clients holds the relying-party registry: which client
// applications may send users here, where they may be redirected, and which
// origins may call the API. The registry is injected where needed instead of
// living in process-wide globals.
package clients

import (
	"encoding/json"
	"os"
	"strings"
)

// Client is one registered relying party.
type Client struct {
	ID                     string   `json:"client_id"`
	Name                   string   `json:"client_name"`
	RedirectURIs           []string `json:"redirect_uris"`
	PostLogoutRedirectURIs []string `json:"post_logout_redirect_uris"`
	AllowedCORSOrigins     []string `json:"allowed_cors_origins"`
}

// Registry resolves clients by redirect target. It is immutable after Load.
type Registry struct {
	clients []Client
}

func New(clients []Client) *Registry {
	return &Registry{clients: clients}
}

// Load reads a registry from a JSON file, falling back to the built-in
// development registry when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(defaultClients()), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cs []Client
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, err
	}
	return New(cs), nil
}

// MatchRedirect finds the client whose registered redirect URIs cover the
// given return URL.
func (r *Registry) MatchRedirect(returnURL string) (Client, bool) {
	if returnURL == "" {
		return Client{}, false
	}
	for _, c := range r.clients {
		for _, uri := range c.RedirectURIs {
			if returnURL == uri || strings.HasPrefix(returnURL, uri+"/") || strings.HasPrefix(returnURL, uri+"?") {
				return c, true
			}
		}
	}
	return Client{}, false
}

// ByID looks a client up by its identifier.
func (r *Registry) ByID(id string) (Client, bool) {
	for _, c := range r.clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// CORSOrigins joins every registered origin for the CORS middleware.
func (r *Registry) CORSOrigins() string {
	var origins []string
	for _, c := range r.clients {
		origins = append(origins, c.AllowedCORSOrigins...)
	}
	return strings.Join(origins, ",")
}

// defaultClients mirrors the development setup: a SPA on localhost:3000.
func defaultClients() []Client {
	return []Client{
		{
			ID:   "spa",
			Name: "SPA Client",
			RedirectURIs: []string{
				"http://localhost:3000",
				"http://localhost:3000/callback",
				"http://localhost:3000/silent",
				"http://localhost:3000/popup",
			},
			PostLogoutRedirectURIs: []string{"http://localhost:3000"},
			AllowedCORSOrigins:     []string{"http://localhost:3000"},
		},
	}
}
