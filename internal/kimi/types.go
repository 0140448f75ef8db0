package kimi

// Wire types for the Kimi web API. Field names follow the service's
// snake_case JSON.

// PreSignedURL is the response of the pre-sign endpoint.
type PreSignedURL struct {
	URL        string `json:"url"`
	ObjectName string `json:"object_name"`
	FileID     string `json:"file_id"`
}

// FileMeta carries image dimensions as strings, as the service expects.
type FileMeta struct {
	Width  string `json:"width"`
	Height string `json:"height"`
}

type fileRegisterRequest struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	FileID string   `json:"file_id"`
	Meta   FileMeta `json:"meta"`
}

// ExtraInfo is the registered file's pixel dimensions.
type ExtraInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FileDetail describes a registered upload.
type FileDetail struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ParentPath   string    `json:"parent_path"`
	Type         string    `json:"type"`
	Size         int       `json:"size"`
	Status       string    `json:"status"`
	PresignedURL string    `json:"presigned_url"`
	PreviewURL   string    `json:"preview_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	ExtraInfo    ExtraInfo `json:"extra_info"`
	ContentType  string    `json:"content_type"`
}

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FileRef attaches a registered file to a completion request.
type FileRef struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Size           int               `json:"size"`
	File           map[string]string `json:"file"`
	UploadProgress int               `json:"upload_progress"`
	UploadStatus   string            `json:"upload_status"`
	ParseStatus    string            `json:"parse_status"`
	Detail         FileDetail        `json:"detail"`
	FileInfo       FileDetail        `json:"file_info"`
	Done           bool              `json:"done"`
}

// NewFileRef builds a FileRef for an already-uploaded file.
func NewFileRef(id, name string, size int, detail FileDetail) FileRef {
	return FileRef{
		ID:             id,
		Name:           name,
		Size:           size,
		File:           map[string]string{},
		UploadProgress: 100,
		UploadStatus:   "success",
		ParseStatus:    "success",
		Detail:         detail,
		FileInfo:       detail,
		Done:           true,
	}
}

type completionRequest struct {
	Messages    []Message `json:"messages"`
	UseSearch   bool      `json:"use_search"`
	Extend      extend    `json:"extend"`
	KimiplusID  string    `json:"kimiplus_id"`
	UseResearch bool      `json:"use_research"`
	UseMath     bool      `json:"use_math"`
	Refs        []string  `json:"refs"`
	RefsFile    []FileRef `json:"refs_file"`
}

type extend struct {
	Sidebar bool `json:"sidebar"`
}

type createChatRequest struct {
	Name        string `json:"name"`
	IsExample   bool   `json:"is_example"`
	EnterMethod string `json:"enter_method"`
	KimiplusID  string `json:"kimiplus_id"`
}

// Event is one decoded server-sent event from a completion stream.
type Event struct {
	Event   string `json:"event"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
}
