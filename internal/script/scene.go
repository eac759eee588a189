// Package script turns narration text into ordered scenes and estimates how
// long each scene takes to narrate.
package script

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Scene is one narration block. Index is 1-based and fixes the position of
// the scene's clip in the assembled video.
type Scene struct {
	Index int
	Text  string
}

// sceneBreak matches a blank line or a "Cena:" / "Cena-" marker at the start
// of any line, including the line right after a blank-line break
var sceneBreak = regexp.MustCompile(`(?i)\n\s*\n|(?m:^)cena\s*[:\-]`)

// Split breaks a script into trimmed, non-empty scenes in input order.
// A script without separators yields a single scene.
func Split(text string) []Scene {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	parts := sceneBreak.Split(text, -1)
	scenes := make([]Scene, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		scenes = append(scenes, Scene{Index: len(scenes) + 1, Text: part})
	}
	return scenes
}
