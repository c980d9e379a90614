package models

type AppSummary struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Platform   string         `json:"platform,omitempty"`
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
}

type Dashboard struct {
	Applications []AppSummary  `json:"applications"`
	Total        int            `json:"total"`
	BySeverity   map[string]int `json:"by_severity"`
}
