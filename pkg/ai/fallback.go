package ai

// FallbackQuestion returns the canned question served when generation fails
// for any reason. Callers of the generation endpoint never see an upstream
// failure; they get this payload tagged "Fallback" instead.
func FallbackQuestion(req QuestionRequest) Question {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}

	return Question{
		Question: "Which of the following best describes how to stay on pace in an asynchronous course?",
		Options: []string{
			"Follow the schedule in your course plan and check in weekly",
			"Wait until the final month to begin the coursework",
			"Only work on the course when reminded by a teacher",
			"Skip the orientation lessons and start with the exams",
		},
		CorrectAnswer:     "A",
		Explanation:       "Asynchronous courses rely on the posted schedule; weekly check-ins keep progress visible to you and your teacher.",
		Category:          "orientation",
		Difficulty:        difficulty,
		LearningObjective: "Explain the pacing expectations of an asynchronous course",
	}
}
