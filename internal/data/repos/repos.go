package repos

import (
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/data/repos/planning"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

type ConceptRepo = planning.ConceptRepo
type ConceptEdgeRepo = planning.ConceptEdgeRepo
type LearningGoalRepo = planning.LearningGoalRepo
type StudentProfileRepo = planning.StudentProfileRepo
type ConceptMasteryRepo = planning.ConceptMasteryRepo
type StudyPlanRepo = planning.StudyPlanRepo
type MilestoneResultRepo = planning.MilestoneResultRepo
type LearningSessionRepo = planning.LearningSessionRepo

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return planning.NewConceptRepo(db, baseLog)
}
func NewConceptEdgeRepo(db *gorm.DB, baseLog *logger.Logger) ConceptEdgeRepo {
	return planning.NewConceptEdgeRepo(db, baseLog)
}
func NewLearningGoalRepo(db *gorm.DB, baseLog *logger.Logger) LearningGoalRepo {
	return planning.NewLearningGoalRepo(db, baseLog)
}
func NewStudentProfileRepo(db *gorm.DB, baseLog *logger.Logger) StudentProfileRepo {
	return planning.NewStudentProfileRepo(db, baseLog)
}
func NewConceptMasteryRepo(db *gorm.DB, baseLog *logger.Logger) ConceptMasteryRepo {
	return planning.NewConceptMasteryRepo(db, baseLog)
}
func NewStudyPlanRepo(db *gorm.DB, baseLog *logger.Logger) StudyPlanRepo {
	return planning.NewStudyPlanRepo(db, baseLog)
}
func NewMilestoneResultRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneResultRepo {
	return planning.NewMilestoneResultRepo(db, baseLog)
}
func NewLearningSessionRepo(db *gorm.DB, baseLog *logger.Logger) LearningSessionRepo {
	return planning.NewLearningSessionRepo(db, baseLog)
}

// IsUniqueViolation re-exports the planning helper for callers that hold the
// facade types only.
func IsUniqueViolation(err error) bool { return planning.IsUniqueViolation(err) }
