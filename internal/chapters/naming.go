// Package chapters turns descriptor titles into file and folder names.
package chapters

import (
	"regexp"
	"strings"
	"unicode"
)

const maxNameLen = 90

var reUnderscore = regexp.MustCompile(`_+`)

var replacer = strings.NewReplacer(
	"•", "_",
	"-", "_",
	"—", "_",
	"–", "_",
	"|", "_",
	"/", "_",
	"\\", "_",
	".", "_",
	" ", "_",
	"(", "",
	")", "",
	"'", "",
)

func sanitize(s string) string {
	s = replacer.Replace(strings.ToLower(s))

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	s = reUnderscore.ReplaceAllString(string(clean), "_")
	s = strings.Trim(s, "_")

	if r := []rune(s); len(r) > maxNameLen {
		s = strings.TrimRight(string(r[:maxNameLen]), "_")
	}

	return s
}

// FileName is the base name shared by a page's record and media file.
func FileName(title, id string) string {
	base := sanitize(title)
	if base == "" {
		return id
	}

	return base + "_" + id
}

// TitleDir is the folder a title's pages are saved into.
func TitleDir(name, id string) string {
	return FileName(name, id)
}

// CBZName is the archive name for one chapter.
func CBZName(chapterTitle, chapterID string) string {
	return FileName(chapterTitle, chapterID) + ".cbz"
}
