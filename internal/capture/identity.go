package capture

import "fmt"

// Identity names the elements of one cycle's capture surface. Every id is
// derived from Sequence, so identities never collide within a session.
type Identity struct {
	Sequence       int    `json:"sequence"`
	CaptureInputID string `json:"capture_input_id"`
	CaptureAreaID  string `json:"capture_area_id"`
	DropAreaID     string `json:"drop_area_id"`
	PreviewAreaID  string `json:"preview_area_id"`
}

// NewIdentity derives the identity for sequence n
func NewIdentity(n int) Identity {
	return Identity{
		Sequence:       n,
		CaptureInputID: fmt.Sprintf("file-%d", n),
		CaptureAreaID:  fmt.Sprintf("upload-area-%d", n),
		DropAreaID:     fmt.Sprintf("drop-area-%d", n),
		PreviewAreaID:  fmt.Sprintf("preview-area-%d", n),
	}
}
