// Package core provides the element snapshot model, the host automation
// contract, and the result types shared by the gxuitest packages.
package core

// Attachment represents an artifact captured during an activity
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, hierarchy
	ContentType string `json:"contentType"` // MIME type: image/png, text/plain
	Path        string `json:"path"`        // File path relative to output directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentReference  = "reference"
	AttachmentDiff       = "diff"
	AttachmentHierarchy  = "hierarchy"
	AttachmentDiffID     = "diff-id"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewImageAttachment creates a PNG attachment with the given name
func NewImageAttachment(name string, data []byte) Attachment {
	return Attachment{
		Name:        name,
		ContentType: ContentTypePNG,
		Body:        data,
	}
}

// NewHierarchyAttachment creates a UI hierarchy attachment
func NewHierarchyAttachment(data []byte) Attachment {
	return Attachment{
		Name:        AttachmentHierarchy,
		ContentType: ContentTypeText,
		Body:        data,
	}
}

// NewTextAttachment creates a plain text attachment with the given name
func NewTextAttachment(name, text string) Attachment {
	return Attachment{
		Name:        name,
		ContentType: ContentTypeText,
		Body:        []byte(text),
	}
}
