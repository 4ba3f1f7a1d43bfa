package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alessandronigro/corsi-backoffice/internal/application/errs"
	"github.com/alessandronigro/corsi-backoffice/internal/application/interfaces"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
	"github.com/alessandronigro/corsi-backoffice/internal/infra/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrollmentKey struct {
	learnerID int64
	courseID  int64
}

type fakeStore struct {
	courses     map[string]*entity.Course
	learners    map[string]*entity.Learner // by fiscal code
	enrollments map[enrollmentKey]bool
	nextID      int64
	createErr   error
	enrollErr   error
	lookupErr   error
	delay       time.Duration
	sawDeadline bool
}

func (s *fakeStore) wait(ctx context.Context) error {
	if s.delay == 0 {
		return nil
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newFakeStore(courses ...*entity.Course) *fakeStore {
	s := &fakeStore{
		courses:     make(map[string]*entity.Course),
		learners:    make(map[string]*entity.Learner),
		enrollments: make(map[enrollmentKey]bool),
	}
	for _, c := range courses {
		s.courses[c.Code] = c
	}
	return s
}

func (s *fakeStore) FindCourse(ctx context.Context, code string) (*entity.Course, error) {
	if _, ok := ctx.Deadline(); ok {
		s.sawDeadline = true
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	course, ok := s.courses[code]
	if !ok {
		return nil, errs.CourseNotFoundError{Code: code}
	}
	return course, nil
}

func (s *fakeStore) FindLearner(ctx context.Context, fiscalCode, email string) (*entity.Learner, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if l, ok := s.learners[fiscalCode]; ok {
		return l, nil
	}
	for _, l := range s.learners {
		if l.Email == email {
			return l, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateLearner(ctx context.Context, learner entity.Learner) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.nextID++
	learner.ID = s.nextID
	s.learners[learner.FiscalCode] = &learner
	return learner.ID, nil
}

func (s *fakeStore) IsEnrolled(ctx context.Context, learnerID, courseID int64) (bool, error) {
	return s.enrollments[enrollmentKey{learnerID, courseID}], nil
}

func (s *fakeStore) Enroll(ctx context.Context, learnerID, courseID int64, examSite string) error {
	if s.enrollErr != nil {
		return s.enrollErr
	}
	s.enrollments[enrollmentKey{learnerID, courseID}] = true
	return nil
}

type fakeFactory struct {
	store *fakeStore
	err   error
}

func (f *fakeFactory) StoreFor(ctx context.Context, connKey, database string) (interfaces.EnrollmentStore, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

type sentMail struct {
	to      []string
	subject string
	html    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to []string, bcc []string, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html})
	return nil
}

type fakeUpdater struct {
	completed []int64
	err       error
}

func (u *fakeUpdater) MarkCompleted(ctx context.Context, orderID int64) error {
	if u.err != nil {
		return u.err
	}
	u.completed = append(u.completed, orderID)
	return nil
}

var testTarget = db.Target{ConnKey: consts.HostIFAD, Database: "formazione_ifad"}

func testRow(i int) entity.EnrollRow {
	return entity.EnrollRow{
		FirstName:  "Mario",
		LastName:   fmt.Sprintf("Rossi%d", i),
		Email:      fmt.Sprintf("mario.rossi%d@example.it", i),
		FiscalCode: fmt.Sprintf("RSSMRA80A01H50%dX", i),
		CourseCode: "SIC-BASE",
	}
}

func TestEnrollRowIsolation(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	enroll := NewEnroll(&fakeFactory{store: store}, nil, nil)

	rows := make([]entity.EnrollRow, 0, 10)
	for i := 0; i < 10; i++ {
		row := testRow(i)
		if i == 5 {
			row.FiscalCode = "  "
		}
		rows = append(rows, row)
	}

	outcomes, err := enroll.Execute(context.Background(), rows, EnrollContext{Target: testTarget, CheckExisting: true})
	require.NoError(t, err)
	require.Len(t, outcomes, 10)

	for i, o := range outcomes {
		if i == 5 {
			assert.Equal(t, consts.OutcomeError, o.Status)
			assert.Contains(t, o.Detail, "codice fiscale")
		} else {
			assert.Equal(t, consts.OutcomeOK, o.Status, "row %d", i)
		}
	}
	assert.Len(t, store.enrollments, 9)
}

func TestEnrollIdempotentResubmit(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	mailer := &fakeMailer{}
	enroll := NewEnroll(&fakeFactory{store: store}, mailer, nil)
	ec := EnrollContext{Target: testTarget, CheckExisting: true, SendEmail: true}

	rows := []entity.EnrollRow{testRow(1)}
	first, err := enroll.Execute(context.Background(), rows, ec)
	require.NoError(t, err)
	require.Equal(t, consts.OutcomeOK, first[0].Status)

	second, err := enroll.Execute(context.Background(), rows, ec)
	require.NoError(t, err)
	require.Equal(t, consts.OutcomeOK, second[0].Status)

	assert.Len(t, store.learners, 1, "resubmit must not duplicate the learner")
	assert.Len(t, store.enrollments, 1, "resubmit must not duplicate the enrollment")
	assert.Len(t, mailer.sent, 1, "resubmit must not duplicate the confirmation mail")
}

func TestEnrollNormalizesIdentity(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	enroll := NewEnroll(&fakeFactory{store: store}, nil, nil)

	rows := []entity.EnrollRow{{
		FirstName:  " Mario ",
		LastName:   " Rossi ",
		Email:      " Mario.Rossi@Example.IT ",
		FiscalCode: " rssmra80a01h501x ",
		CourseCode: " SIC-BASE ",
	}}
	outcomes, err := enroll.Execute(context.Background(), rows, EnrollContext{Target: testTarget})
	require.NoError(t, err)
	require.Equal(t, consts.OutcomeOK, outcomes[0].Status)

	learner := store.learners["RSSMRA80A01H501X"]
	require.NotNil(t, learner)
	assert.Equal(t, "mario.rossi@example.it", learner.Email)
	assert.Equal(t, "Mario", learner.FirstName)
}

func TestEnrollCourseNotFound(t *testing.T) {
	store := newFakeStore()
	enroll := NewEnroll(&fakeFactory{store: store}, nil, nil)

	outcomes, err := enroll.Execute(context.Background(), []entity.EnrollRow{testRow(1)}, EnrollContext{Target: testTarget})
	require.NoError(t, err)
	require.Equal(t, consts.OutcomeError, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Detail, "SIC-BASE")
	assert.Empty(t, store.enrollments, "no write on unresolved course")
}

func TestEnrollNotificationFailureIsWarning(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	mailer := &fakeMailer{err: errors.New("smtp unreachable")}
	enroll := NewEnroll(&fakeFactory{store: store}, mailer, nil)

	outcomes, err := enroll.Execute(context.Background(), []entity.EnrollRow{testRow(1)},
		EnrollContext{Target: testTarget, SendEmail: true})
	require.NoError(t, err)
	require.Equal(t, consts.OutcomeOK, outcomes[0].Status, "mail failure must not fail the row")
	assert.Contains(t, outcomes[0].Warning, "smtp unreachable")
	assert.Len(t, store.enrollments, 1)
}

func TestEnrollOrderCompletedOncePerOrder(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	updater := &fakeUpdater{}
	enroll := NewEnroll(&fakeFactory{store: store}, nil, updater)

	rows := []entity.EnrollRow{testRow(1), testRow(2), testRow(3)}
	for i := range rows {
		rows[i].OrderID = 42
	}
	outcomes, err := enroll.Execute(context.Background(), rows, EnrollContext{Target: testTarget})
	require.NoError(t, err)
	for _, o := range outcomes {
		require.Equal(t, consts.OutcomeOK, o.Status)
	}
	assert.Equal(t, []int64{42}, updater.completed, "one flip for the whole order")
}

func TestEnrollOrderNotCompletedOnPartialFailure(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	updater := &fakeUpdater{}
	enroll := NewEnroll(&fakeFactory{store: store}, nil, updater)

	rows := []entity.EnrollRow{testRow(1), testRow(2)}
	rows[1].Email = ""
	for i := range rows {
		rows[i].OrderID = 42
	}
	outcomes, err := enroll.Execute(context.Background(), rows, EnrollContext{Target: testTarget})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Empty(t, updater.completed, "a failed row must hold the order open")
}

func TestEnrollUpdaterFailureKeepsOutcomes(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	updater := &fakeUpdater{err: errors.New("shop db down")}
	enroll := NewEnroll(&fakeFactory{store: store}, nil, updater)

	rows := []entity.EnrollRow{testRow(1)}
	rows[0].OrderID = 7
	outcomes, err := enroll.Execute(context.Background(), rows, EnrollContext{Target: testTarget})
	require.NoError(t, err)
	assert.Equal(t, consts.OutcomeOK, outcomes[0].Status)
}

func TestEnrollEmptyBatchRejected(t *testing.T) {
	enroll := NewEnroll(&fakeFactory{store: newFakeStore()}, nil, nil)
	_, err := enroll.Execute(context.Background(), nil, EnrollContext{Target: testTarget})
	require.Error(t, err)
}

func TestEnrollStoreFactoryFailureAbortsBatch(t *testing.T) {
	factoryErr := errs.ConnectivityError{Err: errors.New("dial tcp: connection refused")}
	enroll := NewEnroll(&fakeFactory{err: factoryErr}, nil, nil)

	_, err := enroll.Execute(context.Background(), []entity.EnrollRow{testRow(1)}, EnrollContext{Target: testTarget})
	var connErr errs.ConnectivityError
	require.ErrorAs(t, err, &connErr)
}

func TestEnrollCancellationStopsNewWrites(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	enroll := NewEnroll(&fakeFactory{store: store}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []entity.EnrollRow{testRow(1), testRow(2)}
	outcomes, err := enroll.Execute(ctx, rows, EnrollContext{Target: testTarget})
	require.NoError(t, err)
	require.Len(t, outcomes, 2, "outcome count always equals row count")
	for _, o := range outcomes {
		assert.Equal(t, consts.OutcomeError, o.Status)
		assert.Contains(t, o.Detail, "cancelled")
	}
	assert.Empty(t, store.enrollments)
}

func TestEnrollBatchTimeoutReported(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	store.delay = 500 * time.Millisecond
	enroll := NewEnroll(&fakeFactory{store: store}, nil, nil)

	rows := []entity.EnrollRow{testRow(1), testRow(2)}
	outcomes, err := enroll.Execute(context.Background(), rows,
		EnrollContext{Target: testTarget, Timeout: 20 * time.Millisecond})
	require.NoError(t, err, "a timed-out batch is reported, not left pending")
	require.Len(t, outcomes, 2)

	assert.Equal(t, consts.OutcomeError, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Detail, "deadline")
	assert.Equal(t, consts.OutcomeError, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Detail, "batch timeout exceeded")
	assert.Empty(t, store.enrollments, "no write may start after the deadline")
}

func TestEnrollRowCallsCarryDeadline(t *testing.T) {
	store := newFakeStore(&entity.Course{ID: 1, Code: "SIC-BASE", Name: "Sicurezza Base"})
	enroll := NewEnroll(&fakeFactory{store: store}, nil, nil)

	outcomes, err := enroll.Execute(context.Background(), []entity.EnrollRow{testRow(1)},
		EnrollContext{Target: testTarget})
	require.NoError(t, err)
	require.Equal(t, consts.OutcomeOK, outcomes[0].Status)
	assert.True(t, store.sawDeadline, "store calls must run under a deadline even when none is configured")
}
