package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxAnswerChars bounds the answer text sent to the LLM.
const maxAnswerChars = 4000

// Generator produces text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Grade is the structured reply expected from the LLM.
type Grade struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// VertexScorer grades answers with an LLM
type VertexScorer struct {
	llm    Generator
	labels Labels
}

// NewVertexScorer creates a new LLM-backed scorer over labels
func NewVertexScorer(llm Generator, labels Labels) *VertexScorer {
	return &VertexScorer{
		llm:    llm,
		labels: labels,
	}
}

// Score asks the LLM for a grade and checks it against the label range
func (s *VertexScorer) Score(ctx context.Context, answer string) (int, error) {
	prompt := s.buildGradingPrompt(answer)

	response, err := s.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("failed to get LLM response: %w", err)
	}

	grade, err := s.parseGrade(response)
	if err != nil {
		return 0, fmt.Errorf("failed to parse grade: %w", err)
	}
	if !s.labels.Valid(grade.Score) {
		return 0, fmt.Errorf("LLM returned score %d outside 0-%d", grade.Score, s.labels.Max())
	}

	return grade.Score, nil
}

// buildGradingPrompt creates the grading prompt for one answer
func (s *VertexScorer) buildGradingPrompt(answer string) string {
	var sb strings.Builder

	sb.WriteString("You are an experienced interviewer grading a candidate's spoken answer to an interview question.\n\n")

	sb.WriteString("## GRADES\n")
	for i, l := range s.labels {
		sb.WriteString(fmt.Sprintf("- %d: %s\n", i, l))
	}

	sb.WriteString("\n## CANDIDATE ANSWER\n")
	answer = sanitizeUTF8(answer)
	if len(answer) > maxAnswerChars {
		sb.WriteString(truncate(answer, maxAnswerChars))
		sb.WriteString("\n[Answer truncated for length]")
	} else {
		sb.WriteString(answer)
	}
	sb.WriteString("\n\n")

	sb.WriteString("## INSTRUCTIONS\n")
	sb.WriteString("Judge clarity, relevance, structure and concrete evidence. Ignore grammar and filler words.\n")
	sb.WriteString("Respond in the following JSON format:\n")
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf(`  "score": <0-%d>,`+"\n", s.labels.Max()))
	sb.WriteString(`  "reasoning": "<one or two sentences>"` + "\n")
	sb.WriteString("}\n\n")
	sb.WriteString("Return ONLY the JSON object, no additional text.\n")

	return sb.String()
}

// parseGrade extracts the grade from an LLM response
func (s *VertexScorer) parseGrade(response string) (Grade, error) {
	// Find JSON in response (in case there's extra text)
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return Grade{}, fmt.Errorf("no JSON found in response")
	}

	var grade Grade
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &grade); err != nil {
		return Grade{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return grade, nil
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the replacement character
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// truncate shortens s to at most maxLen bytes without splitting a rune
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
