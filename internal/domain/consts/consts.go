package consts

type OrderStatus string

const OrderStatusPending OrderStatus = "In attesa"
const OrderStatusCompleted OrderStatus = "Completata"
const OrderStatusCancelled OrderStatus = "Annullata"

type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "Bonifico Bancario"
	PaymentCard         PaymentMethod = "Carta di Credito"
	PaymentPaypal       PaymentMethod = "PayPal"
)

// HostKey is a logical upstream LMS cluster, resolved to a physical
// address by the hosts table.
type HostKey string

const (
	HostIFAD   HostKey = "IFAD"
	HostEFAD   HostKey = "EFAD"
	HostSITE   HostKey = "SITE"
	HostNOVA   HostKey = "NOVA"
	HostSIMPLY HostKey = "SIMPLY"
)

type OutcomeStatus string

const (
	OutcomeOK    OutcomeStatus = "OK"
	OutcomeError OutcomeStatus = "ERROR"
)

// Course whose displayed price absorbs the exam fee encoded in the
// order's exam-site string.
const ExamFeeCourseCode = "SIC-AGG-RSPP"

// Fees at or below this threshold stay in the displayed course price.
const ExamFeeThreshold = 69.0

const VATRate = 0.22

const ReminderHeader = "SOLLECITO DI PAGAMENTO"
