package db

import (
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Curriculum catalog
		&domain.Concept{},
		&domain.ConceptEdge{},
		&domain.LearningGoal{},

		// Learner state
		&domain.StudentProfile{},
		&domain.ConceptMastery{},
		&domain.LearningSession{},

		// Plans + milestone outcomes
		&domain.StudyPlan{},
		&domain.MilestoneResult{},
	)
}
