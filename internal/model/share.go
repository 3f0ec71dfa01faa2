package model

// SharedChat is an immutable snapshot of a chat taken at share time.
// The snapshot keeps title and messages; consuming a share clones them
// into a fresh chat owned by the consumer.
type SharedChat struct {
	PublicID string `json:"public_id"`
	ChatID   string `json:"chat_id"`
	Title    string `json:"title"`
	Snapshot string `json:"snapshot"`
	Ctime    int64  `json:"ctime"`
}

type ShareSnapshot struct {
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}
