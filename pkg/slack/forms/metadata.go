package forms

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MetadataKind tags the private metadata of conduct report modals.
	MetadataKind = "conduct_report"

	// maxMetadataLen is Slack's limit for a view's private metadata.
	maxMetadataLen = 3000
)

// Metadata is carried through a modal's "private_metadata" field, from
// the moment the modal is opened until the form is submitted.
type Metadata struct {
	Kind      string `json:"kind"`
	Channel   string `json:"channel"`
	ThreadTS  string `json:"thread_ts"`
	Permalink string `json:"permalink,omitempty"`
}

// NewMetadata returns tagged metadata for a specific moderation thread.
func NewMetadata(channelID, threadTS, permalink string) Metadata {
	return Metadata{Kind: MetadataKind, Channel: channelID, ThreadTS: threadTS, Permalink: permalink}
}

// Encode serializes the metadata, and ensures it fits in a Slack view.
func (m Metadata) Encode() (string, error) {
	if err := m.validate(); err != nil {
		return "", err
	}

	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	if len(b) > maxMetadataLen {
		return "", fmt.Errorf("private metadata too long: %d bytes", len(b))
	}
	return string(b), nil
}

// ParseMetadata deserializes and validates a modal's private metadata.
func ParseMetadata(s string) (Metadata, error) {
	if s == "" {
		return Metadata{}, errors.New("missing private metadata")
	}

	var m Metadata
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return Metadata{}, fmt.Errorf("malformed private metadata: %w", err)
	}
	if err := m.validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func (m Metadata) validate() error {
	if m.Kind != MetadataKind {
		return fmt.Errorf("unexpected private metadata kind: %q", m.Kind)
	}
	if m.Channel == "" || m.ThreadTS == "" {
		return errors.New("private metadata is missing the channel or thread")
	}
	return nil
}
