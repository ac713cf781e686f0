package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"

	"github.com/gobinath/gcalendar/internal"
)

const DriverName = "sqlite3"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db: sqlx.NewDb(db, DriverName),
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

// Token loads the stored OAuth token for accountID. ErrAuthRequired is
// returned when no token was ever saved for the account.
func (s Storage) Token(ctx context.Context, accountID string) (*oauth2.Token, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `
		SELECT token FROM accounts WHERE id = ?
	`, accountID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && raw == "") {
		return nil, fmt.Errorf("%w: account %q has no stored token", internal.ErrAuthRequired, accountID)
	}
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("sqlite: decoding token for %q: %v", accountID, err)
	}
	return &tok, nil
}

func (s Storage) SaveToken(ctx context.Context, accountID string, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("sqlite: encoding token for %q: %v", accountID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, token) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET token=?;
	`, accountID, string(raw), string(raw))
	return err
}

// Account returns the stored client credential override for accountID.
// A zero-valued Account (with ID set) is returned when nothing is stored.
func (s Storage) Account(ctx context.Context, accountID string) (*internal.Account, error) {
	var acc account
	err := s.db.GetContext(ctx, &acc, `
		SELECT id, client_id, client_secret FROM accounts WHERE id = ?
	`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return &internal.Account{ID: accountID}, nil
	}
	if err != nil {
		return nil, err
	}
	return acc.Convert(), nil
}

func (s Storage) SaveAccount(ctx context.Context, acc *internal.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, client_id, client_secret) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET client_id=?, client_secret=?;
	`, acc.ID, acc.ClientID, acc.ClientSecret, acc.ClientID, acc.ClientSecret)
	return err
}

// Reset deletes the account's token, credential override and
// notification state. It reports whether the account existed and is a
// no-op when it did not.
func (s Storage) Reset(ctx context.Context, accountID string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM notifications WHERE account_id = ?
	`, accountID); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM accounts WHERE id = ?
	`, accountID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// Accounts lists the ids of accounts holding a token, sorted.
func (s Storage) Accounts(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id FROM accounts WHERE token != '' ORDER BY id
	`)
	return ids, err
}

func (s Storage) NotificationState(ctx context.Context, accountID string) (internal.NotificationState, error) {
	state := internal.NewNotificationState()

	var lastCheck string
	err := s.db.GetContext(ctx, &lastCheck, `
		SELECT last_check FROM accounts WHERE id = ?
	`, accountID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return state, err
	}
	if lastCheck != "" {
		state.LastCheck, err = time.Parse(time.RFC3339, lastCheck)
		if err != nil {
			return state, fmt.Errorf("sqlite: decoding last check for %q: %v", accountID, err)
		}
	}

	var rows []notification
	err = s.db.SelectContext(ctx, &rows, `
		SELECT event_id, starts_at FROM notifications WHERE account_id = ?
	`, accountID)
	if err != nil {
		return state, err
	}
	for _, row := range rows {
		startsAt, err := time.Parse(time.RFC3339, row.StartsAt)
		if err != nil {
			return state, fmt.Errorf("sqlite: decoding notification %q for %q: %v", row.EventID, accountID, err)
		}
		state.Notified[row.EventID] = startsAt
	}
	return state, nil
}

// SaveNotificationState replaces the account's notification state in a
// single transaction, so an interrupted run never leaves partial state.
func (s Storage) SaveNotificationState(ctx context.Context, accountID string, state internal.NotificationState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lastCheck := state.LastCheck.Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, last_check) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET last_check=?;
	`, accountID, lastCheck, lastCheck)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM notifications WHERE account_id = ?
	`, accountID); err != nil {
		return err
	}
	for eventID, startsAt := range state.Notified {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (account_id, event_id, starts_at)
			VALUES (?, ?, ?)
		`, accountID, eventID, startsAt.Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
