package storage

import "time"

// KeyCurrentFileID is the state key holding the active server file id.
const KeyCurrentFileID = "currentFileId"

// FileRecord describes an artifact previously uploaded from this client.
type FileRecord struct {
	FileID       string
	Filename     string
	BrowserType  string
	TotalEntries int64
	UploadedAt   time.Time
	LastOpenedAt time.Time
}
