package pushlog

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/lib/pq"
)

// Postgres is a durable audit log for deployments that want push events to
// outlive the process.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Append(ctx context.Context, e Entry) error {
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO push_events (event, properties, sender, received_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = p.db.ExecContext(ctx, query,
		e.Event,
		props,
		e.Sender,
		e.ReceivedAt,
	)

	return err
}
