package internal

type Calendar struct {
	ID      string
	Name    string
	Primary bool
}

func (c Calendar) String() string {
	return c.Name
}
