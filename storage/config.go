package storage

import (
	"github.com/sib-utrecht/portal/storage/pg"
	"github.com/sib-utrecht/portal/storage/sqlite"
)

type Config struct {
	Type     string        `json:"type"`
	Sqlite   sqlite.Config `json:"sqlite"`
	Postgres pg.Config     `json:"postgres"`
}
