package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/storage/pg/migrations"
)

type Config struct {
	URL string `json:"url"`
}

type DB struct {
	*pgxpool.Pool
}

func New(config Config) (DB, error) {
	if config.URL == "" {
		return DB{}, errors.New("PG.New - storage.postgres.url must be set")
	}
	pool, err := pgxpool.New(context.Background(), config.URL)
	if err != nil {
		return DB{}, fmt.Errorf("PG.New - %w", err)
	}
	return DB{pool}, nil
}

func (db DB) Ping() error {
	if _, err := db.Exec(context.Background(), "select 1"); err != nil {
		return fmt.Errorf("PG.Ping - %w", err)
	}
	return nil
}

func (db DB) Close() error {
	db.Pool.Close()
	return nil
}

func (db DB) EnsureMigrations() error {
	return migrations.Run(db.Pool)
}

func (db DB) Info() (any, error) {
	migration, err := migrations.GetCurrent(db.Pool)
	if err != nil {
		return nil, err
	}

	return struct {
		Type      string `json:"type"`
		Migration int    `json:"migration"`
	}{
		Type:      "postgres",
		Migration: migration,
	}, nil
}

func (db DB) GetCommitteeSecret(ctx context.Context, id string) (*data.Committee, error) {
	// ids are uuids; anything else can't exist and would only
	// produce a cast error from postgres
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := db.QueryRow(ctx, `
		select id::text, name, members, secret, created
		from portal_committees
		where id = $1
	`, id)

	committee := &data.Committee{}
	err := row.Scan(&committee.Id, &committee.Name, &committee.Members, &committee.Secret, &committee.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("PG.GetCommitteeSecret - %w", err)
	}
	return committee, nil
}

func (db DB) ListCommittees(ctx context.Context, memberId string) ([]data.CommitteeSummary, error) {
	rows, err := db.Query(ctx, `
		select id::text, name, members, created
		from portal_committees
		where $1 = any(members)
	`, memberId)
	if err != nil {
		return nil, fmt.Errorf("PG.ListCommittees - %w", err)
	}

	committees, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (data.CommitteeSummary, error) {
		var c data.CommitteeSummary
		err := row.Scan(&c.Id, &c.Name, &c.Members, &c.Created)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("PG.ListCommittees (scan) - %w", err)
	}
	return committees, nil
}

func (db DB) CreateCommittee(ctx context.Context, opts data.CreateCommittee) (data.CommitteeSummary, error) {
	id := opts.Id
	if id == "" {
		id = uuid.NewString()
	}
	members := data.NormalizeMembers(opts.Members)

	var created time.Time
	err := db.QueryRow(ctx, `
		insert into portal_committees (id, name, members, secret)
		values ($1, $2, $3, $4)
		returning created
	`, id, opts.Name, members, opts.Secret).Scan(&created)
	if err != nil {
		return data.CommitteeSummary{}, fmt.Errorf("PG.CreateCommittee - %w", err)
	}

	return data.CommitteeSummary{
		Id:      id,
		Name:    opts.Name,
		Members: members,
		Created: created,
	}, nil
}
