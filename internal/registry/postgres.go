package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/cvt-care/support-bot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS registered_chats (
	chat_id    BIGINT PRIMARY KEY,
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore keeps the chat registry in a single Postgres table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("error initializing registry schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]models.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, active FROM registered_chats ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error querying registry: %w", err)
	}
	defer rows.Close()

	var entries []models.RegistryEntry
	for rows.Next() {
		var e models.RegistryEntry
		if err := rows.Scan(&e.Chat, &e.Active); err != nil {
			return nil, fmt.Errorf("error scanning registry entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading registry rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Append(ctx context.Context, chat models.ChatID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registered_chats (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`,
		int64(chat))
	if err != nil {
		return fmt.Errorf("error appending chat %d to registry: %w", chat, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
