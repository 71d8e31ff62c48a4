// Package committees lists the caller's committees and lets admins
// register new ones.
package committees

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sib-utrecht/portal/storage/data"
)

type committeeResponse struct {
	Id      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
	// unix ms
	Created int64 `json:"created"`
}

func toResponse(c data.CommitteeSummary) committeeResponse {
	members := c.Members
	if members == nil {
		members = []string{}
	}
	return committeeResponse{
		Id:      c.Id,
		Name:    c.Name,
		Members: members,
		Created: c.Created.UnixMilli(),
	}
}

// Names are Dutch for the most part, so accents and case shouldn't
// push a committee to the end of the list.
func sortByName(committees []data.CommitteeSummary) {
	c := collate.New(language.Dutch, collate.IgnoreCase, collate.IgnoreDiacritics)
	c.Sort(byName{committees})
}

type byName struct {
	committees []data.CommitteeSummary
}

func (b byName) Len() int {
	return len(b.committees)
}

func (b byName) Swap(i, j int) {
	b.committees[i], b.committees[j] = b.committees[j], b.committees[i]
}

func (b byName) Bytes(i int) []byte {
	return []byte(b.committees[i].Name)
}
