// Package quiz models lesson progress as a plain value object with pure
// reducer-style transitions, independent of storage or transport.
package quiz

// Outcome records the latest answer a student gave for one question.
type Outcome struct {
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
	Attempts int    `json:"attempts"`
}

// Progress tracks which questions of a lesson have been answered and whether
// the latest answer was correct. The zero value is usable.
type Progress struct {
	answers map[string]Outcome
}

// New returns an empty Progress.
func New() Progress {
	return Progress{answers: map[string]Outcome{}}
}

// FromMap rebuilds a Progress from its serialized form.
func FromMap(answers map[string]Outcome) Progress {
	p := New()
	for id, outcome := range answers {
		p.answers[id] = outcome
	}
	return p
}

// Apply records an answer for a question and returns the resulting Progress.
// The receiver is not mutated; attempts accumulate across applications.
func (p Progress) Apply(questionID, answer string, correct bool) Progress {
	next := FromMap(p.answers)
	outcome := next.answers[questionID]
	outcome.Answer = answer
	outcome.Correct = correct
	outcome.Attempts++
	next.answers[questionID] = outcome
	return next
}

// Outcome returns the recorded outcome for a question, if any.
func (p Progress) Outcome(questionID string) (Outcome, bool) {
	outcome, ok := p.answers[questionID]
	return outcome, ok
}

// Answered reports how many questions have a recorded answer.
func (p Progress) Answered() int {
	return len(p.answers)
}

// CorrectCount reports how many questions were answered correctly.
func (p Progress) CorrectCount() int {
	count := 0
	for _, outcome := range p.answers {
		if outcome.Correct {
			count++
		}
	}
	return count
}

// Complete reports whether every required question has a correct answer.
// An empty requirement list is never complete.
func (p Progress) Complete(required []string) bool {
	if len(required) == 0 {
		return false
	}
	for _, id := range required {
		outcome, ok := p.answers[id]
		if !ok || !outcome.Correct {
			return false
		}
	}
	return true
}

// ToMap serializes the progress for persistence.
func (p Progress) ToMap() map[string]Outcome {
	out := make(map[string]Outcome, len(p.answers))
	for id, outcome := range p.answers {
		out[id] = outcome
	}
	return out
}
