package ir

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is the on-disk form of a compiled program.
type Document struct {
	IRVersion    string         `json:"ir_version"`
	Source       string         `json:"source,omitempty"`
	Options      map[string]any `json:"options,omitempty"`
	Instructions Ast            `json:"instructions"`
}

// NewDocument wraps an Ast for writing.
func NewDocument(source string, options map[string]any, ast Ast) *Document {
	if ast == nil {
		ast = Ast{}
	}
	return &Document{
		IRVersion:    IRVersion,
		Source:       source,
		Options:      options,
		Instructions: ast,
	}
}

// ReadDocument decodes a Document and validates its instructions.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding IR document: %w", err)
	}
	if doc.IRVersion != IRVersion {
		return nil, fmt.Errorf("unsupported ir_version %q (want %q)", doc.IRVersion, IRVersion)
	}
	if doc.Instructions == nil {
		doc.Instructions = Ast{}
	}
	if err := Validate(doc.Instructions); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteDocument encodes doc as canonical JSON followed by a newline.
func WriteDocument(w io.Writer, doc *Document) error {
	fields := map[string]any{
		"ir_version":   doc.IRVersion,
		"instructions": doc.Instructions,
	}
	if doc.Source != "" {
		fields["source"] = doc.Source
	}
	if len(doc.Options) > 0 {
		fields["options"] = doc.Options
	}
	data, err := MarshalCanonical(fields)
	if err != nil {
		return fmt.Errorf("encoding IR document: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
