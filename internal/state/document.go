package state

import (
	"fmt"

	"cogengine/internal/services"
)

// Document is the record shape produced by loaders and splitters and consumed
// by batch processing. It is stored in State as a map with the same keys so
// persisted state stays plain JSON.
type Document struct {
	Filename string
	Filepath string
	Content  string
}

// Map converts the document into its stored representation.
func (d Document) Map() map[string]any {
	return map[string]any{
		"filename": d.Filename,
		"filepath": d.Filepath,
		"content":  d.Content,
	}
}

// DocumentFrom converts a stored value back into a Document. Content is
// required; filename and filepath default to empty.
func DocumentFrom(v any) (Document, error) {
	return decodeDocument(v, true)
}

// PartialDocumentFrom is DocumentFrom with content defaulting to empty.
func PartialDocumentFrom(v any) (Document, error) {
	return decodeDocument(v, false)
}

func decodeDocument(v any, requireContent bool) (Document, error) {
	if doc, ok := v.(Document); ok {
		return doc, nil
	}
	m, err := Of(v).AsMap()
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if content, ok := m["content"]; ok {
		doc.Content = Of(content).String()
	} else if requireContent {
		return Document{}, services.Wrap(services.ErrValidation, "state", "document", "record has no content field", nil)
	}
	if name, ok := m["filename"]; ok {
		doc.Filename = Of(name).String()
	}
	if path, ok := m["filepath"]; ok {
		doc.Filepath = Of(path).String()
	}
	return doc, nil
}

// Documents converts docs into the list form stored in State.
func Documents(docs []Document) []any {
	out := make([]any, len(docs))
	for i, doc := range docs {
		out[i] = doc.Map()
	}
	return out
}

// NameOr returns the document filename, or a positional placeholder.
func (d Document) NameOr(index int) string {
	if d.Filename != "" {
		return d.Filename
	}
	return fmt.Sprintf("document_%d", index)
}
