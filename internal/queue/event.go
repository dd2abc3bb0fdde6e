// Package queue defines message payloads exchanged over the message broker.
package queue

// PushQueueName is the durable queue carrying push notification events.
const PushQueueName = "alerts.push"

// PushEvent is published after a state-changing transaction commits and
// describes one push notification to deliver. It carries everything the
// delivery worker needs except the device tokens, which the worker
// resolves itself so a token registered after publish still receives
// the push.
type PushEvent struct {
    Nickname string `json:"nickname"`
    Title    string `json:"title"`
    Body     string `json:"body"`
    SentAt   string `json:"sent_at"`
}
