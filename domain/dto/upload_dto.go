package dto

// UploadResponse reflects the publish outcome back to the uploader.
// Error is populated only when Status is "failed".
type UploadResponse struct {
	Status    string `json:"status"`
	Platform  string `json:"platform"`
	PublishID string `json:"publish_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
