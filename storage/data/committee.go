package data

import (
	"strings"
	"time"
)

// Committee is the complete stored record, including the TOTP secret.
// Only the code distribution path reads it; anything returned to a
// client uses CommitteeSummary.
type Committee struct {
	Id      string
	Name    string
	Members []string
	Secret  string `json:"-"`
	Created time.Time
}

func (c *Committee) HasMember(memberId string) bool {
	if memberId == "" {
		return false
	}
	for _, m := range c.Members {
		if m == memberId {
			return true
		}
	}
	return false
}

func (c *Committee) Summary() CommitteeSummary {
	return CommitteeSummary{
		Id:      c.Id,
		Name:    c.Name,
		Members: c.Members,
		Created: c.Created,
	}
}

type CommitteeSummary struct {
	Id      string
	Name    string
	Members []string
	Created time.Time
}

type CreateCommittee struct {
	// optional, generated when empty
	Id      string
	Name    string
	Members []string
	Secret  string
}

// NormalizeMembers trims member ids, dropping blanks and duplicates
// while keeping the roster order.
func NormalizeMembers(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	unique := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		unique = append(unique, m)
	}
	return unique
}
