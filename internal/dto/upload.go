package dto

// UploadFotoResponse locates an uploaded photo.
type UploadFotoResponse struct {
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}
