package dto

type UploadResponse struct {
	URL      string `json:"url"`
	Folder   string `json:"folder"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}
