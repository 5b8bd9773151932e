package models

type ImageAttachment struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
	Kind    string `json:"kind,omitempty"` // "product", "design_preview"
}

type ChatResponse struct {
	Text   string            `json:"text"`
	Goal   string            `json:"goal,omitempty"`
	Images []ImageAttachment `json:"images,omitempty"`
}

type DesignUploadResponse struct {
	SessionID  string `json:"session_id"`
	Filename   string `json:"filename"`
	Side       string `json:"side"`
	HasLogo    bool   `json:"has_logo"`
	PreviewURL string `json:"preview_url"`
	LogoCount  int    `json:"logo_count"`
	Text       string `json:"text,omitempty"`
}

type OrderSnapshotResponse struct {
	SessionID string         `json:"session_id"`
	Order     map[string]any `json:"order"`
}

type ResetResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
