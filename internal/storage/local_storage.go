package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LocalStore is a key/value store with the semantics of browser local
// storage: string values, missing keys read as absent.
type LocalStore struct {
	db *DB
}

func NewLocalStore(db *DB) *LocalStore {
	return &LocalStore{db: db}
}

// Get returns the value under key and whether it exists.
func (s *LocalStore) Get(key string) (string, bool, error) {
	var v string
	err := s.db.Conn().QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *LocalStore) Set(key, value string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Remove(key string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM local_storage WHERE key = ?`, key)
	return err
}
