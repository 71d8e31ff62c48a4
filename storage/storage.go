package storage

import (
	"context"
	"strings"

	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/storage/pg"
	"github.com/sib-utrecht/portal/storage/sqlite"
)

// singleton
var DB Storage

type Storage interface {
	// health check the storage, returns nil if everything is ok
	Ping() error

	// return information about the storage
	Info() (any, error)

	EnsureMigrations() error

	Close() error

	// Returns nil, nil when the committee doesn't exist. This is the
	// only accessor which exposes the secret.
	GetCommitteeSecret(ctx context.Context, id string) (*data.Committee, error)

	// Committees whose roster includes memberId, in no particular order.
	ListCommittees(ctx context.Context, memberId string) ([]data.CommitteeSummary, error)

	CreateCommittee(ctx context.Context, opts data.CreateCommittee) (data.CommitteeSummary, error)
}

func Configure(config Config) (err error) {
	tpe := strings.ToLower(config.Type)
	switch tpe {
	case "postgres", "pg":
		DB, err = pg.New(config.Postgres)
	case "sqlite":
		DB, err = sqlite.New(config.Sqlite)
	default:
		err = codes.Errf(codes.ERR_INVALID_STORAGE_TYPE, "storage.type is invalid. Should be one of: postgres or sqlite")
	}
	return
}
