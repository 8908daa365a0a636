// Package export writes bilingual transcript artifacts to disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// notTranslatedPlaceholder stands in for the Hindi section when translation
// has not run or failed.
const notTranslatedPlaceholder = "Not translated"

// Document is the material exported for one completed session.
type Document struct {
	SourceName string
	English    string
	Hindi      string
	When       time.Time
}

// Render produces the bilingual transcript body.
func Render(doc Document) string {
	hindi := strings.TrimSpace(doc.Hindi)
	if hindi == "" {
		hindi = notTranslatedPlaceholder
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transcription for: %s\n", doc.SourceName)
	fmt.Fprintf(&sb, "Date: %s\n", doc.When.Format("1/2/2006, 3:04:05 PM"))
	sb.WriteString("\n--- ENGLISH ---\n")
	sb.WriteString(doc.English)
	sb.WriteString("\n\n--- HINDI (हिंदी) ---\n")
	sb.WriteString(hindi)
	sb.WriteString("\n")
	return sb.String()
}

// Filename derives the artifact name from the source audio name.
func Filename(sourceName string) string {
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	if base == "" {
		base = "transcript"
	}
	return base + "_translation.txt"
}

// Write renders the document into dir and returns the artifact path.
func Write(dir string, doc Document) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, Filename(doc.SourceName))
	if err := os.WriteFile(path, []byte(Render(doc)), 0o644); err != nil {
		return "", fmt.Errorf("write transcript %q: %w", path, err)
	}
	return path, nil
}
