package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset represents one ingested binary file under management. Rows are
// written once at ingestion time and never updated.
type Asset struct {
	ID               uuid.UUID `json:"id"`
	ImportedPath     string    `json:"imported_path"`
	ImportedFilename string    `json:"imported_filename"`
	StoredPath       string    `json:"stored_path"`
	StoredURL        string    `json:"stored_url"`
	SizeBytes        int64     `json:"size_bytes"`
	StoredFilename   string    `json:"stored_filename"`
	Extension        string    `json:"extension"`
	ContentHash      *string   `json:"content_hash"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Meta             *Metadata `json:"meta"`
}

// Metadata is the optional 1:1 classification record attached to an asset.
// When present in the database, all five fields are non-empty.
type Metadata struct {
	AssetType         string `json:"asset_type"`
	AssetClass        string `json:"asset_class"`
	AssetLocationName string `json:"asset_location_name"`
	AssetCamera       string `json:"asset_camera"`
	AssetDateLabel    string `json:"asset_date_label"`
}

var metadataFieldNames = []string{
	"asset_type",
	"asset_class",
	"asset_location_name",
	"asset_camera",
	"asset_date_label",
}

func (m Metadata) fields() []string {
	return []string{m.AssetType, m.AssetClass, m.AssetLocationName, m.AssetCamera, m.AssetDateLabel}
}

// Complete reports whether all five fields carry a non-blank value.
func (m Metadata) Complete() bool {
	for _, f := range m.fields() {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Empty reports whether no field carries a value at all.
func (m Metadata) Empty() bool {
	for _, f := range m.fields() {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// MissingFields names every blank field, in schema order.
func (m Metadata) MissingFields() []string {
	var missing []string
	for i, f := range m.fields() {
		if strings.TrimSpace(f) == "" {
			missing = append(missing, metadataFieldNames[i])
		}
	}
	return missing
}

// IngestedEvent is the payload published on the asset_ingested channel.
type IngestedEvent struct {
	Asset IngestedAsset `json:"asset"`
	Meta  *Metadata     `json:"meta"`
}

// IngestedAsset is the compact asset projection carried by IngestedEvent.
type IngestedAsset struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Extension string    `json:"extension"`
	Size      int64     `json:"size"`
}
