package gateway

import "time"

// Folder is one directory of models on the backend.
type Folder struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	ModelCount int    `json:"model_count"`
}

// Model is one entry in a folder's model list.
type Model struct {
	ID        string    `json:"id"`
	FolderID  string    `json:"folder_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SizeBytes int64     `json:"size_bytes"`
	Preview   string    `json:"preview,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModelDetail is the enriched record returned for a single model.
type ModelDetail struct {
	Model
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Source      string   `json:"source,omitempty"`
	UsageCount  int      `json:"usage_count"`
	Metadata    Metadata `json:"metadata"`
}

// Metadata is the user-editable portion of a model record.
type Metadata struct {
	DisplayName string   `json:"display_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      int      `json:"rating,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// MetadataPatch carries a partial metadata update. Nil fields are left
// untouched by the backend.
type MetadataPatch struct {
	DisplayName *string   `json:"display_name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Rating      *int      `json:"rating,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// foldersResponse is the wire shape of GET /folders.
type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

// modelsResponse is the wire shape of model list and search endpoints.
type modelsResponse struct {
	Models []Model `json:"models"`
}
