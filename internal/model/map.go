package model

// UploadMapRequest carries one uploaded map archive. When Data is empty, the
// domain pulls the file from the multipart form of the current HTTP request.
type UploadMapRequest struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
}

type UploadMapResponse struct {
	DisplayName string `json:"display_name"`
	Version     int    `json:"version"`
	Filename    string `json:"filename"`
}
