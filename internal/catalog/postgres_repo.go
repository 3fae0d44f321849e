package catalog

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Conn is the slice of *pgx.Conn the repo needs.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Connector opens a fresh connection for a single Upsert call.
type Connector func(ctx context.Context) (Conn, error)

type StoreConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	Table    string
}

// ConnString renders the config as a postgres:// URL.
func (c StoreConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

func PgxConnector(cfg StoreConfig) Connector {
	return func(ctx context.Context) (Conn, error) {
		connCfg, err := pgx.ParseConfig(cfg.ConnString())
		if err != nil {
			return nil, err
		}
		conn, err := pgx.ConnectConfig(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

var modelColumns = []string{
	"model_id", "author", "downloads", "likes", "pipeline_tag", "library_name",
	"model_type", "license", "private", "last_modified", "is_recent", "fetch_time",
}

type PostgresRepo struct {
	connect Connector
	table   string
}

func NewPostgresRepo(connect Connector, table string) *PostgresRepo {
	return &PostgresRepo{connect: connect, table: table}
}

// Upsert writes all records in one transaction. The table is created first if
// missing. Rows are replaced whole by model_id. Either every row commits or none do.
func (r *PostgresRepo) Upsert(ctx context.Context, records []ModelRecord) error {
	conn, err := r.connect(ctx)
	if err != nil {
		return &StoreError{Op: "connect", Err: err}
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return &StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, r.createTableSQL()); err != nil {
		return &StoreError{Op: "ensure schema", Err: err}
	}

	if len(records) > 0 {
		upsertSQL := r.upsertSQL()
		batch := &pgx.Batch{}
		for _, m := range records {
			batch.Queue(upsertSQL,
				m.ModelID, m.Author, m.Downloads, m.Likes, m.PipelineTag, m.LibraryName,
				m.ModelType, m.License, m.Private, m.LastModified, m.IsRecent, m.FetchTime)
		}

		br := tx.SendBatch(ctx, batch)
		for _, m := range records {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return &StoreError{Op: "upsert", Err: fmt.Errorf("model %q: %w", m.ModelID, err)}
			}
		}
		if err := br.Close(); err != nil {
			return &StoreError{Op: "upsert", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &StoreError{Op: "commit", Err: err}
	}
	return nil
}

func (r *PostgresRepo) tableIdent() string {
	return pgx.Identifier(strings.Split(r.table, ".")).Sanitize()
}

func (r *PostgresRepo) createTableSQL() string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			model_id TEXT PRIMARY KEY,
			author TEXT,
			downloads BIGINT,
			likes BIGINT,
			pipeline_tag TEXT,
			library_name TEXT,
			model_type TEXT,
			license TEXT,
			private BOOLEAN,
			last_modified TIMESTAMP,
			is_recent BOOLEAN,
			fetch_time TIMESTAMP
		)`, r.tableIdent())
}

func (r *PostgresRepo) upsertSQL() string {
	placeholders := make([]string, len(modelColumns))
	updates := make([]string, 0, len(modelColumns)-1)
	for i, col := range modelColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "model_id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (model_id) DO UPDATE SET
			%s`,
		r.tableIdent(),
		strings.Join(modelColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ",\n\t\t\t"))
}
