package domain

import "time"

// Attachment is a file stored in S3 and linked to a single note.
// Ownership is derived from the note, never from the attachment itself.
type Attachment struct {
	AttachmentID string    `json:"id" dynamodbav:"attachment_id"`
	NoteID       string    `json:"note_id" dynamodbav:"note_id"`
	Object       string    `json:"-" dynamodbav:"object"`
	Name         string    `json:"name" dynamodbav:"name"`
	Type         string    `json:"type" dynamodbav:"type"`
	Size         int64     `json:"size" dynamodbav:"size"`
	Hash         string    `json:"hash" dynamodbav:"hash"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}
