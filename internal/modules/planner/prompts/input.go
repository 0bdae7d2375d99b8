package prompts

// Input is the superset of fields any planner prompt may reference.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Student context
	StudentName  string
	GradeLevel   string
	WeeklyHours  string
	VelocityNote string

	// Goal context
	GoalName        string
	GoalDescription string
	GoalCategory    string
	Domain          string

	// Plan shape
	ConceptTitles string
	ConceptCount  string
	TotalHours    string
	WeekCount     string
	TargetDate    string
	ProjectedDate string

	// Question generation
	ConceptTitle       string
	ConceptDescription string
	ConceptGradeLevel  string
	Difficulty         string

	// Schedule drift
	DaysBehind     string
	DaysAhead      string
	RemainingCount string
	MasteredCount  string
}
