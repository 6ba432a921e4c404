package gdrive

const (
	mimeFolder = "application/vnd.google-apps.folder"
	mimeJSON   = "application/json"
	mimeBinary = "application/octet-stream"
)

// Folder is the user's chosen sync container.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RemoteDocument is the envelope written to "{domain}-data.json".
type RemoteDocument struct {
	Domain       string `json:"domain"`
	Version      int    `json:"version"`
	Data         any    `json:"data"`
	LastModified string `json:"lastModified"`
}

// DomainFile describes one "{domain}-data.json" object in the sync folder.
type DomainFile struct {
	Domain       string `json:"domain"`
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	LastModified string `json:"lastModified"`
}

// Attachment describes one binary object in "attachments/{domain}". Identity
// is encoded in the object name as "{id}-{filename}".
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	FileID   string `json:"fileId"`
	Size     int64  `json:"size"`
}

// driveFile is the subset of the Drive files resource this package reads.
type driveFile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType,omitempty"`
	ModifiedTime string   `json:"modifiedTime,omitempty"`
	Size         string   `json:"size,omitempty"`
	Parents      []string `json:"parents,omitempty"`
}

// driveFileList is the response of files.list.
type driveFileList struct {
	Files []driveFile `json:"files"`
}
