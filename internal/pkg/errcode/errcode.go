package errcode

const (
	ErrUnknown = 20000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrNotConfigured
	ErrIndexingFailed
	ErrGenerationFailed
	ErrRetrievalFailed
	ErrTooMany
)
