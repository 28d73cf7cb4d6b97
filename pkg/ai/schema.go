package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const questionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["question", "options", "correctAnswer", "explanation", "category", "difficulty", "learningObjective"],
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "options": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 4,
      "maxItems": 4
    },
    "correctAnswer": {"type": "string", "enum": ["A", "B", "C", "D"]},
    "explanation": {"type": "string"},
    "category": {"type": "string"},
    "difficulty": {"type": "string"},
    "learningObjective": {"type": "string"}
  }
}`

var questionSchema = jsonschema.MustCompileString("question.json", questionSchemaJSON)

// ValidateQuestion checks a generated question against the wire shape the
// lesson components expect: all fields present, exactly four options, and an
// answer in A-D.
func ValidateQuestion(q Question) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}

	var decoded interface{}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}

	if err := questionSchema.Validate(decoded); err != nil {
		return fmt.Errorf("question shape invalid: %w", err)
	}

	return nil
}

// parseQuestionResponse decodes the model's JSON answer and normalizes the
// answer letter before validation.
func parseQuestionResponse(content string) (Question, error) {
	var question Question
	if err := json.Unmarshal([]byte(content), &question); err != nil {
		return Question{}, fmt.Errorf("parse question json: %w", err)
	}

	question.CorrectAnswer = strings.ToUpper(strings.TrimSpace(question.CorrectAnswer))

	if err := ValidateQuestion(question); err != nil {
		return Question{}, err
	}

	return question, nil
}
