package models

import "time"

// SourceType identifies which upstream feed produced a manifest.
type SourceType string

const (
	SourceSanmar         SourceType = "sanmar"
	SourceSS             SourceType = "ss"
	SourceCustomInk      SourceType = "customink"
	SourceInbound        SourceType = "inbound"
	SourceSanmarCombined SourceType = "sanmar_combined"
	SourceSSCombined     SourceType = "ss_combined"
)

// IsCombined reports whether the source is a pre-consolidated master file.
// Combined files are processed first so per-manifest files overlay them.
func (s SourceType) IsCombined() bool {
	return s == SourceSanmarCombined || s == SourceSSCombined
}

// Base returns the underlying feed for a combined source
// (sanmar_combined -> sanmar).
func (s SourceType) Base() SourceType {
	switch s {
	case SourceSanmarCombined:
		return SourceSanmar
	case SourceSSCombined:
		return SourceSS
	}
	return s
}

// ValidSourceTypes lists every source kind the store accepts.
var ValidSourceTypes = []SourceType{
	SourceSanmar,
	SourceSS,
	SourceCustomInk,
	SourceInbound,
	SourceSanmarCombined,
	SourceSSCombined,
}

// IsValidSourceType reports whether s names a known source kind.
func IsValidSourceType(s string) bool {
	for _, t := range ValidSourceTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// ManifestFile describes a manifest stored in the remote manifest store.
// The file content is owned by the store; the build fetches it read-only.
type ManifestFile struct {
	Filename   string     `json:"filename"`
	SourceType SourceType `json:"type"`
	URL        string     `json:"url"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
}

// ManifestListResponse is the store's list payload.
type ManifestListResponse struct {
	Manifests []ManifestFile `json:"manifests"`
}
