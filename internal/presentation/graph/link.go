package graph

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const liveEditorURL = "https://mermaid.live/edit#pako:"

type liveState struct {
	Code          string            `json:"code"`
	Mermaid       map[string]string `json:"mermaid"`
	AutoSync      bool              `json:"autoSync"`
	UpdateDiagram bool              `json:"updateDiagram"`
}

// LiveLink returns a mermaid.live editor URL that opens the given diagram.
// The editor state is zlib-compressed JSON in URL-safe base64 (pako format).
func LiveLink(code string) (string, error) {
	state, err := json.Marshal(liveState{
		Code:          code,
		Mermaid:       map[string]string{"theme": "default"},
		AutoSync:      true,
		UpdateDiagram: true,
	})
	if err != nil {
		return "", fmt.Errorf("encode editor state: %w", err)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(state); err != nil {
		return "", fmt.Errorf("compress editor state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress editor state: %w", err)
	}
	return liveEditorURL + base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}
