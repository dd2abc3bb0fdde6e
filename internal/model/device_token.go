package model

import "time"

// DeviceToken stores one push-delivery token for a user's device.  A
// token is globally unique; registering an existing token under a new
// account moves it to that account.
type DeviceToken struct {
    ID        uint64    // device_tokens.id
    UserID    uint64    // device_tokens.user_id
    Token     string    // device_tokens.token
    CreatedAt time.Time // device_tokens.created_at
}
