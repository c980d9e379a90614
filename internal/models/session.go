// Входные/выходные модели REST-API шлюза для оболочки консоли.
package models

type SessionLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionLoginResponse struct {
	MustChangePassword bool   `json:"must_change_password"`
	ExpiresAt          *int64 `json:"expires_at,omitempty"` // Unix UTC
}

type SessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     *int64 `json:"expires_at,omitempty"` // Unix UTC
	Notice        string `json:"notice,omitempty"`
}

// SessionEvent — сообщение потока /session/events.
// Type: "status" (снимок при подключении) или имя события шины.
type SessionEvent struct {
	Type          string `json:"type"`
	Authenticated bool   `json:"authenticated"`
	Notice        string `json:"notice,omitempty"`
	At            int64  `json:"at"` // Unix UTC
}
