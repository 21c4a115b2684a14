package interpret

import "strings"

const maxSuggestions = 5

// Suggestions proposes query completions for a partial input, driven by
// the same trigger vocabulary the interpreter recognizes.
func (in *Interpreter) Suggestions(partial string) []string {
	lower := strings.ToLower(strings.TrimSpace(partial))
	if lower == "" {
		return nil
	}

	var out []string
	add := func(s ...string) { out = append(out, s...) }

	if strings.Contains(lower, "pdf") || strings.Contains(lower, "document") {
		add("large PDF files", "PDF files modified today", "PDF files in Documents")
	}
	if strings.Contains(lower, "large") || strings.Contains(lower, "big") {
		add("large files over 100MB", "largest files in Downloads")
	}
	if strings.Contains(lower, "recent") || strings.Contains(lower, "today") {
		add("files modified today", "recent downloads", "files created this week")
	}
	if strings.Contains(lower, "code") || strings.Contains(lower, "script") {
		add("Python scripts", "JavaScript files", "source code files")
	}
	if strings.Contains(lower, "image") || strings.Contains(lower, "photo") {
		add("high resolution images", "photos from last month", "images larger than 5MB")
	}

	if len(out) == 0 {
		add(
			partial+" files",
			"large "+partial+" files",
			"recent "+partial+" files",
			partial+" modified today",
		)
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
