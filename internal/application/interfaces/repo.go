package interfaces

import (
	"context"

	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
)

// EnrollmentStore is the per-platform LMS access used by the engine. One
// store is bound to one (host, database) target for the whole batch.
type EnrollmentStore interface {
	FindCourse(ctx context.Context, code string) (*entity.Course, error)
	FindLearner(ctx context.Context, fiscalCode, email string) (*entity.Learner, error)
	CreateLearner(ctx context.Context, learner entity.Learner) (int64, error)
	IsEnrolled(ctx context.Context, learnerID, courseID int64) (bool, error)
	Enroll(ctx context.Context, learnerID, courseID int64, examSite string) error
}

// StoreFactory hands out an EnrollmentStore for a resolved target.
// Construction failure aborts the whole batch.
type StoreFactory interface {
	StoreFor(ctx context.Context, connKey, database string) (EnrollmentStore, error)
}

type OrderRepo interface {
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
	GetParticipants(ctx context.Context, orderID int64) ([]entity.EnrollRow, error)
	GetCourseGroups(ctx context.Context, orderID int64) ([]entity.CourseGroup, error)
	GetConvenzione(ctx context.Context, code string) (*entity.Convenzione, error)
	GetMunicipality(ctx context.Context, id int64) (name, province string, err error)
	UpdateStatus(ctx context.Context, orderID int64, status string) error
}

type NotificationSender interface {
	Send(to []string, bcc []string, subject, html string) error
}

// OrderStatusUpdater flips a source order to its terminal completed
// status, at most once per order per batch.
type OrderStatusUpdater interface {
	MarkCompleted(ctx context.Context, orderID int64) error
}
