package models

import "io"

// FileUpload is an incoming file as received by the transport layer.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FileInfo describes a stored object.
type FileInfo struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FilePath         string `json:"file_path"`
	PublicURL        string `json:"public_url"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
}
