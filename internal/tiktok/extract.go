package tiktok

import "regexp"

// Ordered by how often each shape shows up in shared links: mobile
// short links first, then canonical video paths, then /t/ codes.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://(vm|vt)\.tiktok\.com/[A-Za-z0-9]+/?`),
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/@[A-Za-z0-9._]+/video/[0-9]+/?`),
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/t/[A-Za-z0-9]+/?`),
}

var mentionPattern = regexp.MustCompile(`tiktok\.com`)

// ExtractURL returns the first TikTok URL found in text. Extraction is
// purely syntactic: no normalization, no redirect following.
func ExtractURL(text string) (string, bool) {
	for _, pattern := range urlPatterns {
		if match := pattern.FindString(text); match != "" {
			return match, true
		}
	}
	return "", false
}

// MentionsTikTok reports whether the text references tiktok.com at all,
// used to tell "malformed TikTok link" apart from unrelated chatter.
func MentionsTikTok(text string) bool {
	return mentionPattern.MatchString(text)
}
