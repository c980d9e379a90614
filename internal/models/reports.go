package models

type ArchiveResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	ExpiresAt int64  `json:"expires_at"` // Unix UTC
}
