package models

import "time"

// Activity is an immutable log entry describing something a device did
// (connected, dropped off, changed address). Entries live in a bounded
// ring; the oldest are evicted once capacity is reached.
type Activity struct {
	ID        string    `json:"id" example:"activity-42-1736935800"`
	Device    string    `json:"device" example:"iPhone 13"`
	Action    string    `json:"action" example:"Connected to network"`
	Timestamp time.Time `json:"timestamp"`
}
