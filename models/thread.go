package models

import "time"

// ThreadSummary is one row of a thread search
type ThreadSummary struct {
	ID      string    `json:"id"`
	Newest  time.Time `json:"newest"`
	Subject string    `json:"subject"`
	Authors string    `json:"authors"`
	Total   int       `json:"total"`
	Matched int       `json:"matched"`
	Tags    []string  `json:"tags"`
}

// ThreadMessage is a message of a thread reduced to what an agent reads
type ThreadMessage struct {
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	Date      time.Time `json:"date"`
	Body      string    `json:"body"`
}
