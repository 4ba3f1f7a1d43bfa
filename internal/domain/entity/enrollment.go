package entity

import (
	"time"

	"github.com/alessandronigro/corsi-backoffice/internal/domain/consts"
)

// Convenzione is the partner agreement gating which courses a purchaser
// may buy and on which platform they are delivered. Reference data,
// never mutated by the engine.
type Convenzione struct {
	Code     string
	Name     string
	Platform string
	Host     string
	Visible  bool
	// Prices maps course code to the agreed taxable price.
	Prices map[string]float64
}

// Course is scoped to one LMS platform, looked up by code in that
// platform's own catalog.
type Course struct {
	ID    int64
	Code  string
	Name  string
	Price float64
}

type Learner struct {
	ID         int64
	FirstName  string
	LastName   string
	Email      string
	PEC        string
	FiscalCode string
	Phone      string
}

// EnrollRow is the common unit of work both producers normalize into
// before the engine runs.
type EnrollRow struct {
	FirstName  string
	LastName   string
	Email      string
	PEC        string
	FiscalCode string
	Phone      string
	CourseCode string
	CourseName string
	ExamSite   string
	OrderID    int64 // 0 when the row did not originate from a web order
}

// Outcome is created exactly once per input row and never mutated
// afterwards.
type Outcome struct {
	Status     consts.OutcomeStatus `json:"status"`
	Detail     string               `json:"detail,omitempty"`
	Warning    string               `json:"warning,omitempty"`
	Email      string               `json:"email"`
	FiscalCode string               `json:"fiscalCode"`
	CourseCode string               `json:"courseCode"`
}

func OK(row EnrollRow) Outcome {
	return Outcome{
		Status:     consts.OutcomeOK,
		Email:      row.Email,
		FiscalCode: row.FiscalCode,
		CourseCode: row.CourseCode,
	}
}

func Failed(row EnrollRow, err error) Outcome {
	return Outcome{
		Status:     consts.OutcomeError,
		Detail:     err.Error(),
		Email:      row.Email,
		FiscalCode: row.FiscalCode,
		CourseCode: row.CourseCode,
	}
}

type Order struct {
	ID                    int64
	PaymentMethod         consts.PaymentMethod
	BillingName           string
	BillingEmail          string
	BillingMunicipalityID int64
	BillingProvince       string
	Taxable               float64
	Tax                   float64
	Total                 float64
	Discount              float64
	DiscountCode          string
	Fee                   float64
	ExamSite              string
	ConvenzioneCode       string
	Status                consts.OrderStatus
	CreatedAt             time.Time
}

// CourseGroup is one priced line of the order summary, one per distinct
// course with the number of participants enrolled in it.
type CourseGroup struct {
	CourseCode string  `json:"courseCode"`
	CourseName string  `json:"courseName"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}
