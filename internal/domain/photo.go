package domain

// Photo — фотография события, на которой ищутся лица.
type Photo struct {
	ID       int64
	EventID  int64
	ImageKey string
}
