package tests

import (
	"context"

	"github.com/sib-utrecht/portal/storage"
	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/totp"
)

type factory struct {
	Committee committeeFactory
}

var Factory factory

type committeeFactory struct{}

type CommitteeOpts struct {
	Name    string
	Members []string
	Secret  string
}

// Insert creates a committee through the real storage. Unset fields get
// random values.
func (committeeFactory) Insert(opts CommitteeOpts) data.CommitteeSummary {
	if opts.Name == "" {
		opts.Name = String(5, 20)
	}
	if opts.Secret == "" {
		opts.Secret = totp.RandomSecret(32)
	}

	committee, err := storage.DB.CreateCommittee(context.Background(), data.CreateCommittee{
		Name:    opts.Name,
		Members: opts.Members,
		Secret:  opts.Secret,
	})
	if err != nil {
		panic(err)
	}
	return committee
}
