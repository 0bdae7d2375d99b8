package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type studentDataKey struct{}

// StudentData carries the authenticated learner identity through a request.
type StudentData struct {
	StudentID   uuid.UUID
	TokenString string
}

func WithStudentData(ctx context.Context, sd *StudentData) context.Context {
	return context.WithValue(ctx, studentDataKey{}, sd)
}

func GetStudentData(ctx context.Context) *StudentData {
	if sd, ok := ctx.Value(studentDataKey{}).(*StudentData); ok {
		return sd
	}
	return nil
}
