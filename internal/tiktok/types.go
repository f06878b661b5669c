package tiktok

import "fmt"

// MediaKind is one of the three deliverable content shapes.
type MediaKind string

const (
	KindVideo  MediaKind = "video"
	KindAudio  MediaKind = "audio"
	KindPhotos MediaKind = "photos"
)

func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case KindVideo, KindAudio, KindPhotos:
		return MediaKind(s), nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// ChatAction returns the Telegram typing-indicator action for the kind.
func (k MediaKind) ChatAction() string {
	switch k {
	case KindVideo:
		return "upload_video"
	case KindAudio:
		return "upload_audio"
	default:
		return "upload_photo"
	}
}

// Content is the result of a resolve call. Not persisted.
type Content struct {
	HasVideo  bool
	HasAudio  bool
	HasPhotos bool
	Cover     string
	Author    string
	Likes     int64
	Views     int64
	Comments  int64
}

// HasAnyMedia reports whether at least one downloadable format exists.
func (c Content) HasAnyMedia() bool {
	return c.HasVideo || c.HasAudio || c.HasPhotos
}

// Asset is the result of a download call: a single URL for video/audio,
// or an ordered photo list for slideshows. Not persisted.
type Asset struct {
	URL    string
	Photos []string
}

// APIError is a failure reported by the resolution API or by the
// transport underneath it, carrying a human-readable reason suitable
// for user-facing display.
type APIError struct {
	Reason string
}

func (e *APIError) Error() string {
	return e.Reason
}
