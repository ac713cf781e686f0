package sqlite

func (s Storage) RunMigrations() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR NOT NULL PRIMARY KEY,
		token TEXT NOT NULL DEFAULT "",
		client_id VARCHAR NOT NULL DEFAULT "",
		client_secret VARCHAR NOT NULL DEFAULT "",
		last_check VARCHAR NOT NULL DEFAULT ""
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		account_id VARCHAR NOT NULL,
		event_id VARCHAR NOT NULL,
		starts_at VARCHAR NOT NULL,
		PRIMARY KEY (account_id, event_id),
		FOREIGN KEY (account_id) REFERENCES accounts (id)
	)`,
}
