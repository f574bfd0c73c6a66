package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/orderdesk/internal/settings"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSettings(ctx context.Context) (*settings.Settings, error) {
	var doc []byte

	err := s.db.QueryRowContext(ctx, `SELECT document FROM settings WHERE id = 1`).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, settings.ErrNotFound
		}

		return nil, fmt.Errorf("getting settings: %w", err)
	}

	var out settings.Settings
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}

	return &out, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *settings.Settings) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	query := `
		INSERT INTO settings (id, document) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document
	`
	if _, err := s.db.ExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	return nil
}
