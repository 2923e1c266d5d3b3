package core

import "time"

// TopicMessageUpdate is the broadcast topic carrying newly persisted messages.
const TopicMessageUpdate = "messageUpdate"

// Candidate is an unvalidated message as received at the boundary.
// Fields hold raw decoded values; nil means the field was absent.
type Candidate struct {
	Text      any
	Author    any
	Timestamp any
}

// Draft is a validated message that has not been persisted yet.
type Draft struct {
	Text      string
	Author    string
	Timestamp time.Time
}

// Message is the domain model for a persisted chat message.
type Message struct {
	ID        string
	Text      string
	Author    string
	Timestamp time.Time
}

// MessageUpdate is the payload published on TopicMessageUpdate.
type MessageUpdate struct {
	Msg Message
}
