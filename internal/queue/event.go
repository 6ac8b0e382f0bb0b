// Package queue defines message payloads exchanged over the message broker.
package queue

// NoteSentEvent is published after a note is persisted.  It carries enough
// information for downstream consumers to log or trigger notifications
// without querying the primary database.  The message text itself is not
// included so broker logs never hold note contents.
type NoteSentEvent struct {
	NoteID      uint64 `json:"note_id"`
	RoomID      uint64 `json:"room_id"`
	RoomName    string `json:"room_name"`
	FromTable   int    `json:"from_table"`
	ToTable     int    `json:"to_table"`
	IsAnonymous bool   `json:"is_anonymous"`
	SentAt      string `json:"sent_at"`
}
