// Package ingestion loads the interview question list from disk.
package ingestion

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/fmuoria/interview-coach/internal/interview"
)

// Source is a fixed, ordered question list.
type Source struct {
	questions []string
}

// NewSource builds a Source from questions, dropping blanks and
// duplicates while keeping the first occurrence's position.
func NewSource(questions []string) (*Source, error) {
	seen := make(map[string]bool, len(questions))
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no questions loaded", interview.ErrConfiguration)
	}
	return &Source{questions: out}, nil
}

func (s *Source) Len() int { return len(s.questions) }

func (s *Source) At(i int) string { return s.questions[i] }

// All returns a copy of the questions in order.
func (s *Source) All() []string {
	out := make([]string, len(s.questions))
	copy(out, s.questions)
	return out
}

// LoadQuestions picks a loader by file extension: .xlsx, .yml/.yaml, or
// plain text for anything else.
func LoadQuestions(path string) (*Source, error) {
	var (
		questions []string
		err       error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		questions, err = LoadExcel(path)
	case ".yml", ".yaml":
		questions, err = LoadYAML(path)
	default:
		questions, err = LoadText(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interview.ErrConfiguration, err)
	}

	src, err := NewSource(questions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// LoadExcel reads the first sheet of a workbook. The question column is
// the first header cell containing "question" (any case), or the first
// column when no header matches.
func LoadExcel(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col, start := 0, 0
	for i, cell := range rows[0] {
		if strings.Contains(strings.ToLower(cell), "question") {
			col, start = i, 1
			break
		}
	}

	var questions []string
	for _, row := range rows[start:] {
		if col < len(row) {
			questions = append(questions, row[col])
		}
	}
	return questions, nil
}

type questionFile struct {
	Questions []string `yaml:"questions"`
}

// LoadYAML reads a document of the form "questions: [...]".
func LoadYAML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}

	var qf questionFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse question file: %w", err)
	}
	return qf.Questions, nil
}

// LoadText reads one question per line. Lines starting with # are
// comments.
func LoadText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}

	var questions []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan question file: %w", err)
	}
	return questions, nil
}
