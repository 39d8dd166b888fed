package models

// ChecklistItem is one yes/no inspection point belonging to a template version.
// Template authoring lives elsewhere; the capture core only reads items to
// know what must be answered, whether a failed answer needs a photo, and the
// item text for auto-task descriptions.
type ChecklistItem struct {
	ID              string `json:"id"`
	TemplateID      string `json:"templateId"`
	TemplateVersion int    `json:"templateVersion"`
	Text            string `json:"text"`
	PhotoRequired   bool   `json:"photoRequired"`
	SortOrder       int    `json:"sortOrder"`
}
