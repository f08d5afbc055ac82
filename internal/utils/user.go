package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
)

// TimeAgo renders "3 hours ago" style timestamps for feeds and comments.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// GetDaysSinceJoined 计算加入天数
func GetDaysSinceJoined(createdAt time.Time) int {
	return int(time.Since(createdAt).Hours() / 24)
}

// Initials builds the avatar fallback shown when a profile has no picture.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r := []rune(part)
		b.WriteRune(unicode.ToUpper(r[0]))
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// Label turns an enum value like "road_maintenance" into "Road Maintenance".
func Label(v string) string {
	words := strings.Split(v, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
