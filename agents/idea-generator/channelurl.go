package ideagenerator

import (
	"regexp"
	"strings"
)

// Tried in order; the first submatch is the channel identifier.
var channelURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/channel/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/c/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/user/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/@([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/.*[?&]channel_id=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtube\.com/watch\?v=[\w-]+&.*channel_id=([A-Za-z0-9_-]+)`),
}

var bareIdentifier = regexp.MustCompile(`^@?[A-Za-z0-9_-]+$`)

// SupportedURLHint lists the input shapes NormalizeChannelURL accepts.
const SupportedURLHint = "Supported formats: youtube.com/@channel, youtube.com/channel/ID, youtube.com/c/name"

// NormalizeChannelURL extracts a channel identifier from a YouTube URL or bare handle.
// A bare "@handle" keeps its "@" so the fetcher can search for it.
func NormalizeChannelURL(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	for _, pattern := range channelURLPatterns {
		if m := pattern.FindStringSubmatch(input); m != nil {
			return m[1], true
		}
	}

	if bareIdentifier.MatchString(input) {
		return input, true
	}

	return "", false
}
