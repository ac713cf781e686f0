package sqlite

import "github.com/gobinath/gcalendar/internal"

type account struct {
	ID           string `db:"id"`
	ClientID     string `db:"client_id"`
	ClientSecret string `db:"client_secret"`
}

func (a account) Convert() *internal.Account {
	return &internal.Account{
		ID:           a.ID,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
	}
}

type notification struct {
	EventID  string `db:"event_id"`
	StartsAt string `db:"starts_at"`
}
