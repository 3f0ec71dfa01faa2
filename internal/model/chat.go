package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Index states for an attached document. A chat is created without a file;
// uploading one moves it to pending until the indexing pipeline finishes.
const (
	IndexStatePending = "pending"
	IndexStateIndexed = "indexed"
	IndexStateFailed  = "failed"
)

type Chat struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Title  string    `json:"title"`
	Ctime  int64     `json:"ctime"`
	File   *ChatFile `json:"file,omitempty"`
}

type ChatFile struct {
	ChatID       string `json:"chat_id"`
	FileKey      string `json:"file_key"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	IndexState   string `json:"index_state"`
	ChunkCount   int    `json:"chunk_count"`
	UploadedAt   int64  `json:"uploaded_at"`
}

type Message struct {
	ID     int64  `json:"id"`
	ChatID string `json:"chat_id"`
	Role   string `json:"role"`
	Text   string `json:"text"`
	Ctime  int64  `json:"ctime"`
}
