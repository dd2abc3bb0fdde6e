package model

import "time"

// Alert is an in-app notification row addressed to a user by nickname.
// Alerts are written in the same transaction as the state change that
// caused them; the related push notification is dispatched best-effort
// after commit.  RelatedURL points at the frontend location the alert
// refers to and is used to mark alerts read when that page is opened.
type Alert struct {
    ID           uint64    // alerts.id
    UserNickname string    // alerts.user_nickname
    Message      string    // alerts.message
    RelatedURL   *string   // alerts.related_url (nullable)
    IsRead       bool      // alerts.is_read
    CreatedAt    time.Time // alerts.created_at
}
