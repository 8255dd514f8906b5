package job

import (
	"encoding/json"

	"github.com/google/uuid"
)

type view struct {
	ID           uuid.UUID         `json:"id"`
	OriginalPath string            `json:"originalPath"`
	CurrentPath  string            `json:"currentPath"`
	FileName     string            `json:"fileName"`
	Metadata     map[string]string `json:"metadata"`
	Status       Status            `json:"status"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	NodeLog      []string          `json:"nodeLog"`
}

// MarshalJSON includes OriginalPath and FileName alongside the exported fields.
func (j Job) MarshalJSON() ([]byte, error) {
	return json.Marshal(view{
		ID:           j.ID,
		OriginalPath: j.originalPath,
		CurrentPath:  j.CurrentPath,
		FileName:     j.FileName(),
		Metadata:     j.Metadata,
		Status:       j.Status,
		ErrorMessage: j.ErrorMessage,
		NodeLog:      j.NodeLog,
	})
}
