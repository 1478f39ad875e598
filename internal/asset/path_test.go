package asset

import "testing"

func fullMeta() *Metadata {
	return &Metadata{
		AssetType:         "img",
		AssetClass:        "family",
		AssetLocationName: "Lake House",
		AssetCamera:       "Canon R5",
		AssetDateLabel:    "2024-07-01",
	}
}

func TestStoragePathWithFullMetadata(t *testing.T) {
	got := StoragePath("abc-123", ".jpg", fullMeta())
	want := "assets/img/family/lake_house/canonr5/20240701/abc-123.jpg"
	if got != want {
		t.Fatalf("StoragePath = %q, want %q", got, want)
	}
}

func TestStoragePathWithoutMetadata(t *testing.T) {
	got := StoragePath("abc-123", ".mov", nil)
	want := "assets/unclassified/abc-123.mov"
	if got != want {
		t.Fatalf("StoragePath = %q, want %q", got, want)
	}
}

func TestStoragePathIsDeterministic(t *testing.T) {
	first := StoragePath("abc-123", ".jpg", fullMeta())
	second := StoragePath("abc-123", ".jpg", fullMeta())
	if first != second {
		t.Fatalf("StoragePath not deterministic: %q vs %q", first, second)
	}
}

func TestStoragePathWithoutExtension(t *testing.T) {
	got := StoragePath("abc-123", "", nil)
	want := "assets/unclassified/abc-123"
	if got != want {
		t.Fatalf("StoragePath = %q, want %q", got, want)
	}
}

func TestStoragePathNormalization(t *testing.T) {
	cases := []struct {
		name string
		meta Metadata
		want string
	}{
		{
			name: "whitespace runs collapse in location",
			meta: Metadata{AssetType: "img", AssetClass: "c", AssetLocationName: "  Big   Sky  Ranch ", AssetCamera: "X", AssetDateLabel: "1"},
			want: "assets/img/c/big_sky_ranch/x/1/id.png",
		},
		{
			name: "camera loses whitespace entirely",
			meta: Metadata{AssetType: "img", AssetClass: "c", AssetLocationName: "L", AssetCamera: "Sony A7 IV", AssetDateLabel: "1"},
			want: "assets/img/c/l/sonya7iv/1/id.png",
		},
		{
			name: "date keeps digits only",
			meta: Metadata{AssetType: "img", AssetClass: "c", AssetLocationName: "L", AssetCamera: "X", AssetDateLabel: "July 4, 1999"},
			want: "assets/img/c/l/x/41999/id.png",
		},
		{
			name: "date without digits becomes undated",
			meta: Metadata{AssetType: "img", AssetClass: "c", AssetLocationName: "L", AssetCamera: "X", AssetDateLabel: "sometime"},
			want: "assets/img/c/l/x/undated/id.png",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StoragePath("id", ".png", &tc.meta); got != tc.want {
				t.Fatalf("StoragePath = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayFilename(t *testing.T) {
	got := DisplayFilename(*fullMeta(), 7, ".jpg")
	want := "img_family_lake_house_canonr5_20240701_0007.jpg"
	if got != want {
		t.Fatalf("DisplayFilename = %q, want %q", got, want)
	}
}

func TestDisplayFilenameTruncatesTypePrefix(t *testing.T) {
	meta := *fullMeta()
	meta.AssetType = "Video"
	got := DisplayFilename(meta, 12, ".mov")
	want := "vid_family_lake_house_canonr5_20240701_0012.mov"
	if got != want {
		t.Fatalf("DisplayFilename = %q, want %q", got, want)
	}
}
