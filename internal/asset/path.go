package asset

import (
	"fmt"
	"strings"
)

const (
	pathPrefix        = "assets"
	unclassifiedClass = "unclassified"
	undatedSegment    = "undated"
)

// StoragePath derives the object-store key for an asset. It is pure: the
// compensation path recomputes it from the same inputs after a failed
// database write, so it must never consult a clock or randomness.
//
// ext includes the leading dot, or is empty when the filename has none.
func StoragePath(identity, ext string, meta *Metadata) string {
	if meta == nil {
		return fmt.Sprintf("%s/%s/%s%s", pathPrefix, unclassifiedClass, identity, ext)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s/%s%s",
		pathPrefix,
		meta.AssetType,
		meta.AssetClass,
		underscored(meta.AssetLocationName),
		compacted(meta.AssetCamera),
		dateSegment(meta.AssetDateLabel),
		identity,
		ext,
	)
}

// DisplayFilename builds a human-readable filename from the metadata and a
// per-group sequence index. Not used by the ingestion path itself; exporters
// and download surfaces name files with it.
func DisplayFilename(meta Metadata, sequenceIndex int, ext string) string {
	prefix := strings.ToLower(meta.AssetType)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	parts := []string{
		prefix,
		meta.AssetClass,
		underscored(meta.AssetLocationName),
		compacted(meta.AssetCamera),
		dateSegment(meta.AssetDateLabel),
		fmt.Sprintf("%04d", sequenceIndex),
	}
	return strings.Join(parts, "_") + ext
}

// underscored lower-cases the value and collapses whitespace runs into a
// single underscore.
func underscored(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// compacted lower-cases the value and removes whitespace entirely.
func compacted(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// dateSegment keeps only the digits of a date label, falling back to
// "undated" when none remain.
func dateSegment(label string) string {
	var b strings.Builder
	for _, r := range label {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return undatedSegment
	}
	return b.String()
}
