// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/model"
)

// jsonFormatVersion is bumped when the document layout changes.
const jsonFormatVersion = 1

// jsonDocument is the exported file. Messages keep their log shape, so an
// error bubble is a message with is_error set and no meta.
type jsonDocument struct {
	Format       string `json:"format"`
	Version      int    `json:"version"`
	MessageCount int    `json:"message_count"`
	*Transcript
}

// JSONExporter writes the transcript as one JSON document.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export encodes t. Metadata is dropped when IncludeMetadata is off.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Format:       "syntaxchat-transcript",
		Version:      jsonFormatVersion,
		MessageCount: len(t.Messages),
		Transcript:   t,
	}
	if !e.options.IncludeMetadata {
		stripped := *t
		stripped.Messages = make([]*model.Message, len(t.Messages))
		for i, m := range t.Messages {
			c := *m
			c.Meta = nil
			stripped.Messages[i] = &c
		}
		doc.Transcript = &stripped
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode transcript")
	}
	return data, nil
}

func (e *JSONExporter) FileExtension() string {
	return ".json"
}

func (e *JSONExporter) MimeType() string {
	return "application/json"
}
