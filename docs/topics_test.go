package docs

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// readmeTopics returns the topics listed in readme.md as "* topic: description" lines.
func readmeTopics(t *testing.T) []string {
	t.Helper()
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var topics []string
	scanner := bufio.NewScanner(file)
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	for scanner.Scan() {
		if matches := topicRegex.FindStringSubmatch(scanner.Text()); len(matches) > 1 {
			topics = append(topics, strings.TrimSpace(matches[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}
	return topics
}

func TestTopics(t *testing.T) {
	topicsInReadme := readmeTopics(t)

	// Every topic listed in readme.md can be loaded.
	for _, topic := range topicsInReadme {
		t.Run("load_"+topic, func(t *testing.T) {
			if _, err := GetTopic(topic); err != nil {
				t.Errorf("failed to get topic %q: %v", topic, err)
			}
		})
	}

	// Every .md file but the readme is listed in readme.md.
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatalf("failed to glob *.md: %v", err)
	}
	listed := make(map[string]bool)
	for _, topic := range topicsInReadme {
		listed[topic] = true
	}
	for _, file := range files {
		base := strings.TrimSuffix(filepath.Base(file), ".md")
		if base == "readme" {
			continue
		}
		if !listed[base] {
			t.Errorf("docs/%s.md is not listed in docs/readme.md", base)
		}
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() failed: %v", err)
	}
	if len(all) != len(files)-1 {
		t.Errorf("GetAllTopics() = %v, want %d topics", all, len(files)-1)
	}
}

func TestTopicHeadings(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatalf("failed to glob *.md: %v", err)
	}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			source, err := os.ReadFile(file)
			if err != nil {
				t.Fatalf("failed to read %s: %v", file, err)
			}
			root := goldmark.DefaultParser().Parse(text.NewReader(source))
			h1 := 0
			err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
					h1++
				}
				return ast.WalkContinue, nil
			})
			if err != nil {
				t.Fatalf("walk failed: %v", err)
			}
			if h1 != 1 {
				t.Errorf("%s has %d level 1 headings, want 1", file, h1)
			}
		})
	}
}

func TestTopicTitle(t *testing.T) {
	tests := map[string]string{
		"readme":   "bitmatch",
		"grouping": "Grouping",
		"patterns": "Patterns",
	}
	for topic, want := range tests {
		got, err := TopicTitle(topic)
		if err != nil {
			t.Errorf("TopicTitle(%q) failed: %v", topic, err)
			continue
		}
		if got != want {
			t.Errorf("TopicTitle(%q) = %q, want %q", topic, got, want)
		}
	}

	if _, err := TopicTitle("unknown"); err == nil {
		t.Error("TopicTitle(\"unknown\") should fail")
	}
}

func TestGetTopics(t *testing.T) {
	doc, err := GetTopics("*")
	if err != nil {
		t.Fatalf("GetTopics(\"*\") failed: %v", err)
	}
	for _, title := range []string{"# Grouping", "# Matching", "# Formats"} {
		if !strings.Contains(doc, title) {
			t.Errorf("GetTopics(\"*\") misses %q", title)
		}
	}
	if strings.Contains(doc, "# bitmatch") {
		t.Error("GetTopics(\"*\") should not include the readme")
	}
}
