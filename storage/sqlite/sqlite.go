package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/storage/sqlite/migrations"
)

type Config struct {
	Path string `json:"path"`
}

type Conn struct {
	*sql.DB
}

func New(config Config) (Conn, error) {
	filePath := config.Path
	if filePath == "" {
		return Conn{}, errors.New("Sqlite.New - storage.sqlite.path must be set")
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return Conn{}, fmt.Errorf("Sqlite.New - %w", err)
	}

	// sqlite is single-writer, and every connection to :memory: would
	// otherwise get its own empty database
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"pragma busy_timeout=5000", "pragma foreign_keys=on"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return Conn{}, fmt.Errorf("Sqlite.New (%s) - %w", pragma, err)
		}
	}

	return Conn{db}, nil
}

func (c Conn) Ping() error {
	if _, err := c.Exec("select 1"); err != nil {
		return fmt.Errorf("Sqlite.Ping - %w", err)
	}
	return nil
}

func (c Conn) EnsureMigrations() error {
	return migrations.Run(c.DB)
}

func (c Conn) Info() (any, error) {
	migration, err := migrations.GetCurrent(c.DB)
	if err != nil {
		return nil, err
	}

	return struct {
		Type      string `json:"type"`
		Migration int    `json:"migration"`
	}{
		Type:      "sqlite",
		Migration: migration,
	}, nil
}

func (c Conn) GetCommitteeSecret(ctx context.Context, id string) (*data.Committee, error) {
	row := c.QueryRowContext(ctx, `
		select id, name, secret, created
		from portal_committees
		where id = ?1
	`, id)

	var created int64
	committee := &data.Committee{}
	if err := row.Scan(&committee.Id, &committee.Name, &committee.Secret, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("Sqlite.GetCommitteeSecret - %w", err)
	}
	committee.Created = time.Unix(created, 0)

	members, err := c.members(ctx, committee.Id)
	if err != nil {
		return nil, err
	}
	committee.Members = members
	return committee, nil
}

func (c Conn) ListCommittees(ctx context.Context, memberId string) ([]data.CommitteeSummary, error) {
	rows, err := c.QueryContext(ctx, `
		select c.id, c.name, c.created
		from portal_committees c
			join portal_committee_members m on m.committee_id = c.id
		where m.member_id = ?1
	`, memberId)
	if err != nil {
		return nil, fmt.Errorf("Sqlite.ListCommittees (select) - %w", err)
	}

	var committees []data.CommitteeSummary
	for rows.Next() {
		var created int64
		var committee data.CommitteeSummary
		if err := rows.Scan(&committee.Id, &committee.Name, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("Sqlite.ListCommittees (scan) - %w", err)
		}
		committee.Created = time.Unix(created, 0)
		committees = append(committees, committee)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Sqlite.ListCommittees (rows) - %w", err)
	}

	// with a single connection, the member query can only run once the
	// committee rows are closed
	for i := range committees {
		members, err := c.members(ctx, committees[i].Id)
		if err != nil {
			return nil, err
		}
		committees[i].Members = members
	}
	return committees, nil
}

func (c Conn) CreateCommittee(ctx context.Context, opts data.CreateCommittee) (data.CommitteeSummary, error) {
	id := opts.Id
	if id == "" {
		id = uuid.NewString()
	}
	created := time.Now().Truncate(time.Second)
	members := data.NormalizeMembers(opts.Members)

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return data.CommitteeSummary{}, fmt.Errorf("Sqlite.CreateCommittee (begin) - %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		insert into portal_committees (id, name, secret, created)
		values (?1, ?2, ?3, ?4)
	`, id, opts.Name, opts.Secret, created.Unix()); err != nil {
		return data.CommitteeSummary{}, fmt.Errorf("Sqlite.CreateCommittee (insert) - %w", err)
	}

	for i, member := range members {
		if _, err := tx.ExecContext(ctx, `
			insert into portal_committee_members (committee_id, member_id, position)
			values (?1, ?2, ?3)
		`, id, member, i); err != nil {
			return data.CommitteeSummary{}, fmt.Errorf("Sqlite.CreateCommittee (member) - %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return data.CommitteeSummary{}, fmt.Errorf("Sqlite.CreateCommittee (commit) - %w", err)
	}

	return data.CommitteeSummary{
		Id:      id,
		Name:    opts.Name,
		Members: members,
		Created: created,
	}, nil
}

func (c Conn) members(ctx context.Context, committeeId string) ([]string, error) {
	rows, err := c.QueryContext(ctx, `
		select member_id
		from portal_committee_members
		where committee_id = ?1
		order by position
	`, committeeId)
	if err != nil {
		return nil, fmt.Errorf("Sqlite.members - %w", err)
	}
	defer rows.Close()

	members := make([]string, 0, 8)
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("Sqlite.members (scan) - %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
