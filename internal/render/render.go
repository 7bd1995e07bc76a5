package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"noctua/internal/core"

	"gopkg.in/yaml.v3"
)

// frontMatter is the metadata block at the top of an exported digest.
type frontMatter struct {
	Date          string         `yaml:"date"`
	Show          string         `yaml:"show,omitempty"`
	Articles      int            `yaml:"articles"`
	Words         int            `yaml:"words"`
	Topics        string         `yaml:"topics"`
	Summary       string         `yaml:"summary,omitempty"`
	Synthesized   bool           `yaml:"synthesized"`
	SegmentCounts map[string]int `yaml:"segment_counts,omitempty"`
	Sources       []string       `yaml:"sources,omitempty"`
}

// ExportFilename is the file name a digest for date is exported under.
func ExportFilename(date string) string {
	return fmt.Sprintf("noctua-%s.md", date)
}

// RenderDigest renders a stored digest as markdown with YAML front matter
// followed by the script text.
func RenderDigest(rec *core.DigestRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("no digest to render")
	}

	meta := frontMatter{
		Date:          rec.Date,
		Show:          rec.ShowID,
		Articles:      rec.ArticleCount,
		Words:         rec.TotalWords,
		Topics:        rec.TopicsSummary,
		Summary:       rec.Summary,
		Synthesized:   rec.Synthesized,
		SegmentCounts: rec.SegmentCounts,
		Sources:       allSources(rec.SegmentSources),
	}
	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(rec.Text)
	if !strings.HasSuffix(rec.Text, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ExportDigest renders rec and writes it to outputDir.
func ExportDigest(rec *core.DigestRecord, outputDir string) (string, error) {
	content, err := RenderDigest(rec)
	if err != nil {
		return "", err
	}
	return WriteDigestToFile(content, outputDir, ExportFilename(rec.Date))
}

// WriteDigestToFile writes the provided content to a file in the specified directory
func WriteDigestToFile(content, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = "digests" // Default output directory
	}

	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)

	err = os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write digest file %s: %w", filePath, err)
	}

	return filePath, nil
}

// allSources flattens per-segment sources into one sorted, unique list.
func allSources(bySegment map[string][]string) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, list := range bySegment {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				sources = append(sources, s)
			}
		}
	}
	sort.Strings(sources)
	return sources
}
