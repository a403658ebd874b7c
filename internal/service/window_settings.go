package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"blocknotes/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// The main window size is stored as one JSON row in app_settings,
// created by the storage migration.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	db *storage.DB
}

func NewWindowSettingsService(db *storage.DB) *WindowSettingsService {
	return &WindowSettingsService{db: db}
}

const (
	settingWindow       = "window"
	defaultWindowWidth  = 1100
	defaultWindowHeight = 760
	minWindowWidth      = 640
	minWindowHeight     = 480
)

var (
	// DefaultWindowSize is used before anything was saved.
	DefaultWindowSize = WindowSize{Width: defaultWindowWidth, Height: defaultWindowHeight}
	MinWindowSize     = WindowSize{Width: minWindowWidth, Height: minWindowHeight}
)

// LoadWindowSize returns the saved window dimensions, or the defaults when
// nothing usable is stored.
func (s *WindowSettingsService) LoadWindowSize() WindowSize {
	if s.db == nil {
		return DefaultWindowSize
	}
	var raw string
	err := s.db.Conn().QueryRow(`SELECT value FROM app_settings WHERE key = ?`, settingWindow).Scan(&raw)
	if err != nil {
		return DefaultWindowSize
	}
	var ws WindowSize
	if json.Unmarshal([]byte(raw), &ws) != nil || ws.Width < minWindowWidth || ws.Height < minWindowHeight {
		return DefaultWindowSize
	}
	return ws
}

// SaveWindowSize persists the current window dimensions. Sizes below the
// minimum are ignored, so a minimized window is never restored tiny.
func (s *WindowSettingsService) SaveWindowSize(width, height int) error {
	if s.db == nil {
		return errors.New("window settings: no db")
	}
	if width < minWindowWidth || height < minWindowHeight {
		return nil
	}
	data, _ := json.Marshal(WindowSize{Width: width, Height: height})
	return upsertSetting(s.db.Conn(), settingWindow, string(data))
}

func upsertSetting(conn *sql.DB, key, value string) error {
	_, err := conn.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
