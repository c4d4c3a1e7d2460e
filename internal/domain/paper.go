// Package domain provides the domain models and error types for the
// Kiga-ers paper discovery service.
package domain

import "strings"

// PlaceholderID is the identifier of the synthetic end-of-results card.
// A result set carries at most one placeholder, so a fixed ID is safe.
const PlaceholderID = "end-of-results"

// Author represents a paper author with optional affiliation.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	if a.Affiliation == "" {
		return a.Name
	}
	return a.Name + " (" + a.Affiliation + ")"
}

// Paper represents one search result.
//
// Published and Updated are opaque date strings taken verbatim from the
// source feed; nothing in the service interprets them.
type Paper struct {
	// ID is the stable identifier derived from the source record URL,
	// e.g. "2301.12345v2". Unique within a result set.
	ID string `json:"id"`

	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	Authors    []Author `json:"authors"`
	Published  string   `json:"published,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`
	Categories []string `json:"categories,omitempty"`

	// Summary holds the generated summary. Empty until a summary request
	// for this paper succeeds.
	Summary string `json:"summary,omitempty"`

	// IsPlaceholder marks the synthetic end-of-results card. Placeholders
	// carry only Message; the bibliographic fields are empty.
	IsPlaceholder bool   `json:"is_placeholder,omitempty"`
	Message       string `json:"message,omitempty"`
}

// NewPlaceholder returns the synthetic card appended after the last real
// result once the source is exhausted.
func NewPlaceholder(message string) *Paper {
	return &Paper{
		ID:            PlaceholderID,
		IsPlaceholder: true,
		Message:       message,
	}
}

// HasPDF reports whether the paper links to a full-text document.
func (p *Paper) HasPDF() bool {
	return strings.TrimSpace(p.PDFURL) != ""
}
