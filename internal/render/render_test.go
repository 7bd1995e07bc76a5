package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"noctua/internal/core"

	"gopkg.in/yaml.v3"
)

func testRecord() *core.DigestRecord {
	return &core.DigestRecord{
		CompiledDigest: core.CompiledDigest{
			Date:          "2026-02-16",
			ShowID:        "hootline",
			Text:          "# The Hootline: Daily Briefing for February 16, 2026\n\n## SEGMENT 1: Latest in Tech (~5 minutes)",
			ArticleCount:  3,
			TotalWords:    120,
			TopicsSummary: "Latest in Tech (2); Seattle (1)",
			Summary:       "Agents everywhere and new bus lanes.",
			SegmentCounts: map[string]int{"Latest in Tech": 2, "Seattle": 1},
			SegmentSources: map[string][]string{
				"Latest in Tech": {"TLDR", "The Neuron"},
				"Seattle":        {"Capitol Hill Seattle", "TLDR"},
			},
		},
		CreatedAt: time.Date(2026, 2, 16, 7, 30, 0, 0, time.UTC),
	}
}

func TestRenderDigest(t *testing.T) {
	out, err := RenderDigest(testRecord())
	if err != nil {
		t.Fatalf("RenderDigest failed: %v", err)
	}

	if !strings.HasPrefix(out, "---\n") {
		t.Fatalf("Expected front matter, got %q", out[:20])
	}
	parts := strings.SplitN(out, "---\n", 3)
	if len(parts) != 3 {
		t.Fatalf("Expected front matter delimiters, got %q", out)
	}

	var meta frontMatter
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		t.Fatalf("Front matter is not valid YAML: %v", err)
	}
	if meta.Date != "2026-02-16" || meta.Articles != 3 || meta.Show != "hootline" {
		t.Errorf("Unexpected front matter: %+v", meta)
	}
	if got := strings.Join(meta.Sources, ","); got != "Capitol Hill Seattle,TLDR,The Neuron" {
		t.Errorf("Expected sorted unique sources, got %s", got)
	}
	if meta.SegmentCounts["Seattle"] != 1 {
		t.Errorf("Expected segment counts in front matter, got %v", meta.SegmentCounts)
	}

	if !strings.HasSuffix(out, "## SEGMENT 1: Latest in Tech (~5 minutes)\n") {
		t.Errorf("Expected digest text with trailing newline at the end, got %q", out[len(out)-40:])
	}
}

func TestRenderDigest_Nil(t *testing.T) {
	if _, err := RenderDigest(nil); err == nil {
		t.Error("Expected error for nil digest")
	}
}

func TestExportDigest(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := ExportDigest(testRecord(), tmpDir)
	if err != nil {
		t.Fatalf("ExportDigest failed: %v", err)
	}

	if want := filepath.Join(tmpDir, "noctua-2026-02-16.md"); path != want {
		t.Errorf("Expected file path %s, got %s", want, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read exported digest: %v", err)
	}
	if !strings.Contains(string(data), "Latest in Tech (2); Seattle (1)") {
		t.Errorf("Exported digest missing topics: %s", data)
	}
}

func TestWriteDigestToFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "# Test Digest\n\nThis is test content."
	filename := "test_digest.md"

	filePath, err := WriteDigestToFile(content, tmpDir, filename)
	if err != nil {
		t.Fatalf("WriteDigestToFile failed: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, filename)
	if filePath != expectedPath {
		t.Errorf("Expected file path %s, got %s", expectedPath, filePath)
	}

	fileContent, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read digest file: %v", err)
	}

	if string(fileContent) != content {
		t.Errorf("Expected content %q, got %q", content, string(fileContent))
	}
}

func TestWriteDigestToFile_DefaultOutputDir(t *testing.T) {
	originalWd, _ := os.Getwd()
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(originalWd) }()

	filePath, err := WriteDigestToFile("Test content", "", "test.md")
	if err != nil {
		t.Fatalf("WriteDigestToFile failed: %v", err)
	}

	if filePath != filepath.Join("digests", "test.md") {
		t.Errorf("Expected file to be in digests directory, got %s", filePath)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "digests")); os.IsNotExist(err) {
		t.Error("Default digests directory should be created")
	}
}

func TestWriteDigestToFile_InvalidOutputDir(t *testing.T) {
	tmpDir := t.TempDir()
	invalidPath := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(invalidPath, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteDigestToFile("content", invalidPath, "test.md"); err == nil {
		t.Error("Expected error when output directory is invalid")
	}
}
