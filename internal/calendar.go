package internal

// Calendar is the calendar lessons are written to.
type Calendar struct {
	Platform string
	ID       string
}

func (c Calendar) String() string {
	return c.Platform + "/" + c.ID
}
