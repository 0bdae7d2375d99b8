package app

import (
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type Repos struct {
	Concepts repos.ConceptRepo
	Edges    repos.ConceptEdgeRepo
	Goals    repos.LearningGoalRepo
	Students repos.StudentProfileRepo
	Mastery  repos.ConceptMasteryRepo
	Plans    repos.StudyPlanRepo
	Sessions repos.LearningSessionRepo
	Results  repos.MilestoneResultRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Concepts: repos.NewConceptRepo(db, log),
		Edges:    repos.NewConceptEdgeRepo(db, log),
		Goals:    repos.NewLearningGoalRepo(db, log),
		Students: repos.NewStudentProfileRepo(db, log),
		Mastery:  repos.NewConceptMasteryRepo(db, log),
		Plans:    repos.NewStudyPlanRepo(db, log),
		Sessions: repos.NewLearningSessionRepo(db, log),
		Results:  repos.NewMilestoneResultRepo(db, log),
	}
}
