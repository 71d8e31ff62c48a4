package portal

import (
	"errors"
	"strings"
)

// Returned whenever there is no valid caller session.
var ErrUnauthorized = errors.New("unauthorized: must be logged in")

// Identity is the authenticated caller, as asserted by the identity
// provider's token. It is passed explicitly to anything that needs to
// make an authorization decision.
type Identity struct {
	Email      string
	Name       string
	GivenName  string
	FamilyName string

	// The member's stable id in the member administration, matched
	// against committee rosters.
	ConscriboId string

	Groups []string
}

// StableId is what committee rosters contain.
func (i *Identity) StableId() string {
	return i.ConscriboId
}

func (i *Identity) InGroup(group string) bool {
	for _, g := range i.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// DisplayName prefers given + family name, then the name claim.
func (i *Identity) DisplayName() string {
	parts := make([]string, 0, 2)
	if i.GivenName != "" {
		parts = append(parts, i.GivenName)
	}
	if i.FamilyName != "" {
		parts = append(parts, i.FamilyName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if i.Name != "" {
		return i.Name
	}
	return "User"
}
