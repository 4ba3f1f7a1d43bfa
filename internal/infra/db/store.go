package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/alessandronigro/corsi-backoffice/internal/application/errs"
	"github.com/alessandronigro/corsi-backoffice/internal/application/interfaces"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
	"github.com/alessandronigro/corsi-backoffice/internal/domain/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LMSStore runs the per-platform learner and enrollment queries over one
// registry pool. Every error goes through report so the registry can
// evict broken pools.
type LMSStore struct {
	pool   *pgxpool.Pool
	report func(err error)
}

var _ interfaces.EnrollmentStore = (*LMSStore)(nil)

func NewLMSStore(pool *pgxpool.Pool, report func(err error)) *LMSStore {
	if report == nil {
		report = func(error) {}
	}
	return &LMSStore{pool: pool, report: report}
}

func (s *LMSStore) FindCourse(ctx context.Context, code string) (*entity.Course, error) {
	var course entity.Course
	err := s.pool.QueryRow(ctx,
		"SELECT id, code, name, price FROM courses WHERE code = $1", code).
		Scan(&course.ID, &course.Code, &course.Name, &course.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.CourseNotFoundError{Code: code}
	}
	if err != nil {
		s.report(err)
		return nil, fmt.Errorf("error looking up course %s, %v", code, err)
	}
	return &course, nil
}

func (s *LMSStore) FindLearner(ctx context.Context, fiscalCode, email string) (*entity.Learner, error) {
	var learner entity.Learner
	err := s.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, COALESCE(pec, ''), fiscal_code, COALESCE(phone, '')
		 FROM learners WHERE fiscal_code = $1 OR lower(email) = $2 LIMIT 1`, fiscalCode, email).
		Scan(&learner.ID, &learner.FirstName, &learner.LastName, &learner.Email,
			&learner.PEC, &learner.FiscalCode, &learner.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.report(err)
		return nil, fmt.Errorf("error looking up learner, %v", err)
	}
	return &learner, nil
}

func (s *LMSStore) CreateLearner(ctx context.Context, learner entity.Learner) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO learners (first_name, last_name, email, pec, fiscal_code, phone)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		learner.FirstName, learner.LastName, learner.Email, learner.PEC,
		learner.FiscalCode, learner.Phone).Scan(&id)
	if err != nil {
		s.report(err)
		return 0, err
	}
	return id, nil
}

func (s *LMSStore) IsEnrolled(ctx context.Context, learnerID, courseID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM enrollments WHERE learner_id = $1 AND course_id = $2)",
		learnerID, courseID).Scan(&exists)
	if err != nil {
		s.report(err)
		return false, err
	}
	return exists, nil
}

func (s *LMSStore) Enroll(ctx context.Context, learnerID, courseID int64, examSite string) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO enrollments (learner_id, course_id, exam_site, created_at) VALUES ($1,$2,$3,now())",
		learnerID, courseID, examSite)
	if err != nil {
		s.report(err)
	}
	return err
}

// StoreFactory binds the registry to the engine's store contract.
type StoreFactory struct {
	registry *Registry
}

var _ interfaces.StoreFactory = (*StoreFactory)(nil)

func NewStoreFactory(registry *Registry) *StoreFactory {
	return &StoreFactory{registry: registry}
}

func (f *StoreFactory) StoreFor(ctx context.Context, connKey, database string) (interfaces.EnrollmentStore, error) {
	host := consts.HostKey(connKey)
	pool, err := f.registry.Acquire(ctx, host, database)
	if err != nil {
		return nil, err
	}
	return NewLMSStore(pool, func(err error) {
		f.registry.Report(host, database, err)
	}), nil
}

// OrdersRepo reads the shop schema: orders, participants, convenzioni
// and billing lookups. The status flip is its only write.
type OrdersRepo struct {
	pool *pgxpool.Pool
}

var _ interfaces.OrderRepo = (*OrdersRepo)(nil)

func NewOrdersRepo(pool *pgxpool.Pool) *OrdersRepo {
	return &OrdersRepo{pool: pool}
}

func (r *OrdersRepo) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	var o entity.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, payment_method, billing_name, COALESCE(billing_email, ''),
		        COALESCE(billing_municipality_id, 0),
		        COALESCE(billing_province, ''), taxable, tax, total,
		        COALESCE(discount, 0), COALESCE(discount_code, ''), COALESCE(fee, 0),
		        COALESCE(exam_site, ''), COALESCE(convenzione_code, ''), status, created_at
		 FROM shop.orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.PaymentMethod, &o.BillingName, &o.BillingEmail, &o.BillingMunicipalityID,
			&o.BillingProvince, &o.Taxable, &o.Tax, &o.Total,
			&o.Discount, &o.DiscountCode, &o.Fee,
			&o.ExamSite, &o.ConvenzioneCode, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error retrieving order %d, %v", orderID, err)
	}
	return &o, nil
}

func (r *OrdersRepo) GetParticipants(ctx context.Context, orderID int64) ([]entity.EnrollRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT first_name, last_name, email, COALESCE(pec, ''), fiscal_code,
		        COALESCE(phone, ''), course_code, course_name
		 FROM shop.order_participants WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving participants of order %d, %v", orderID, err)
	}
	defer rows.Close()

	var result []entity.EnrollRow
	for rows.Next() {
		var row entity.EnrollRow
		if err := rows.Scan(&row.FirstName, &row.LastName, &row.Email, &row.PEC,
			&row.FiscalCode, &row.Phone, &row.CourseCode, &row.CourseName); err != nil {
			return nil, err
		}
		row.OrderID = orderID
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *OrdersRepo) GetCourseGroups(ctx context.Context, orderID int64) ([]entity.CourseGroup, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.course_code, p.course_name, count(*),
		        COALESCE(max(cp.price), 0)
		 FROM shop.order_participants p
		 JOIN shop.orders o ON o.id = p.order_id
		 LEFT JOIN shop.convenzione_prices cp
		   ON cp.convenzione_code = o.convenzione_code AND cp.course_code = p.course_code
		 WHERE p.order_id = $1
		 GROUP BY p.course_code, p.course_name
		 ORDER BY p.course_code`, orderID)
	if err != nil {
		return nil, fmt.Errorf("error grouping courses of order %d, %v", orderID, err)
	}
	defer rows.Close()

	var groups []entity.CourseGroup
	for rows.Next() {
		var g entity.CourseGroup
		if err := rows.Scan(&g.CourseCode, &g.CourseName, &g.Quantity, &g.Price); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *OrdersRepo) GetConvenzione(ctx context.Context, code string) (*entity.Convenzione, error) {
	var c entity.Convenzione
	err := r.pool.QueryRow(ctx,
		`SELECT code, name, COALESCE(platform, ''), COALESCE(host, ''), visible
		 FROM shop.convenzioni WHERE code = $1`, code).
		Scan(&c.Code, &c.Name, &c.Platform, &c.Host, &c.Visible)
	if err != nil {
		return nil, fmt.Errorf("error retrieving convenzione %s, %v", code, err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT course_code, price FROM shop.convenzione_prices WHERE convenzione_code = $1", code)
	if err != nil {
		return nil, fmt.Errorf("error retrieving convenzione prices, %v", err)
	}
	defer rows.Close()
	c.Prices = make(map[string]float64)
	for rows.Next() {
		var courseCode string
		var price float64
		if err := rows.Scan(&courseCode, &price); err != nil {
			return nil, err
		}
		c.Prices[courseCode] = price
	}
	return &c, rows.Err()
}

func (r *OrdersRepo) GetMunicipality(ctx context.Context, id int64) (string, string, error) {
	if id == 0 {
		return "", "", nil
	}
	var name, province string
	err := r.pool.QueryRow(ctx,
		"SELECT name, province FROM shop.municipalities WHERE id = $1", id).
		Scan(&name, &province)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("error retrieving municipality %d, %v", id, err)
	}
	return name, province, nil
}

func (r *OrdersRepo) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE shop.orders SET status = $1, updated_at = now() WHERE id = $2", status, orderID)
	if err != nil {
		return fmt.Errorf("error updating order %d status, %v", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d not found", orderID)
	}
	return nil
}

// MarkCompleted satisfies the engine's OrderStatusUpdater.
func (r *OrdersRepo) MarkCompleted(ctx context.Context, orderID int64) error {
	return r.UpdateStatus(ctx, orderID, string(consts.OrderStatusCompleted))
}
