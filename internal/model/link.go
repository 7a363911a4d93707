package model

// LinkEntry maps a short URL key to an opaque serialized payload. Entries are
// immutable once written; cleanup only ever deletes whole rows.
type LinkEntry struct {
	Key     string `json:"key"`
	Payload string `json:"payload"`
	Ctime   int64  `json:"ctime"`
}
