package tests

// This _needs_ to be called "0tests", because we need the init
// in this file to execute before the init in any other file
// (awful)

import (
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sib-utrecht/portal/storage"
	"github.com/sib-utrecht/portal/storage/pg"
	"github.com/sib-utrecht/portal/storage/sqlite"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	storageConfig := storage.Config{
		Type:     StorageType(),
		Sqlite:   sqlite.Config{Path: ":memory:"},
		Postgres: pg.Config{URL: PG()},
	}

	if err := storage.Configure(storageConfig); err != nil {
		panic(err)
	}

	if err := storage.DB.EnsureMigrations(); err != nil {
		panic(err)
	}
}

// sqlite unless PORTAL_TEST_STORAGE says otherwise
func StorageType() string {
	if t := os.Getenv("PORTAL_TEST_STORAGE"); t != "" {
		return strings.ToLower(t)
	}
	return "sqlite"
}

func PG() string {
	if url := os.Getenv("PORTAL_TEST_PG"); url != "" {
		return url
	}
	return "postgres://localhost:5432/portal_test"
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// String returns a random string. No constraint: 10 characters; one:
// exactly that many; two: between min and max.
func String(constraints ...int) string {
	l := 10
	switch len(constraints) {
	case 1:
		l = constraints[0]
	case 2:
		l = constraints[0] + rand.Intn(constraints[1]-constraints[0]+1)
	}

	b := make([]byte, l)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

func UUID() string {
	return uuid.NewString()
}
