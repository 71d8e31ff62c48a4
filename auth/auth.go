// Package auth verifies the identity provider's bearer tokens and turns
// them into a *portal.Identity.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/config"
)

type Claims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	GivenName   string   `json:"given_name,omitempty"`
	FamilyName  string   `json:"family_name,omitempty"`
	ConscriboId string   `json:"custom:conscribo-id,omitempty"`
	Groups      []string `json:"cognito:groups,omitempty"`
	jwt.RegisteredClaims
}

type Gate struct {
	secret     []byte
	adminGroup string
	parser     *jwt.Parser
}

func New(config config.Auth) (*Gate, error) {
	if config.Secret == "" {
		return nil, errors.New("auth.secret must be set")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.LeewayDuration()),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	adminGroup := config.AdminGroup
	if adminGroup == "" {
		adminGroup = "admins"
	}

	return &Gate{
		secret:     []byte(config.Secret),
		adminGroup: adminGroup,
		parser:     jwt.NewParser(opts...),
	}, nil
}

// RequireLogin validates the value of an Authorization header (or a
// bare token) and returns the caller's identity. Every failure is an
// portal.ErrUnauthorized; the wrapped reason is for logs only.
func (g *Gate) RequireLogin(authorization string) (*portal.Identity, error) {
	token := strings.TrimSpace(authorization)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, portal.ErrUnauthorized
	}

	var claims Claims
	_, err := g.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w - %w", portal.ErrUnauthorized, err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w - identity has no email address", portal.ErrUnauthorized)
	}

	return &portal.Identity{
		Email:       claims.Email,
		Name:        claims.Name,
		GivenName:   claims.GivenName,
		FamilyName:  claims.FamilyName,
		ConscriboId: claims.ConscriboId,
		Groups:      claims.Groups,
	}, nil
}

func (g *Gate) IsAdmin(identity *portal.Identity) bool {
	if identity == nil {
		return false
	}
	return identity.InGroup(g.adminGroup)
}

// Sign issues a token for the given claims. The identity provider is
// the normal source of tokens; this is used by tests and local tooling.
func (g *Gate) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}
