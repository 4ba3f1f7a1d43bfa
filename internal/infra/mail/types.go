package mail

type MailType string

const (
	EnrollmentConfirmed MailType = "EnrollmentConfirmed"
	PaymentReminder     MailType = "PaymentReminder"
)

type MailData interface {
	GetMailType() MailType
	GetSubject() string
}

type EnrollmentConfirmedData struct {
	FirstName       string
	LastName        string
	CourseName      string
	ConvenzioneName string
}

func (s EnrollmentConfirmedData) GetMailType() MailType {
	return EnrollmentConfirmed
}

func (s EnrollmentConfirmedData) GetSubject() string {
	return "Conferma iscrizione al corso " + s.CourseName
}

type PaymentReminderData struct {
	OrderID     int64
	BillingName string
	Subject     string
}

func (s PaymentReminderData) GetMailType() MailType {
	return PaymentReminder
}

func (s PaymentReminderData) GetSubject() string {
	return s.Subject
}
