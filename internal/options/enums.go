package options

// Student type enumeration used by registration and mass updates.
var studentTypes = []string{
	"Non-Primary",
	"Home Education",
	"Summer School",
	"Adult Student",
	"International Student",
}

// Term enumeration.
var terms = []string{
	"Full Year",
	"Semester 1",
	"Semester 2",
	"Summer",
}

// Diploma exam sittings.
var diplomaMonths = []string{
	"November",
	"January",
	"April",
	"June",
	"August",
}

// Payment status values carried on an enrollment.
var paymentStatuses = []string{
	"paid",
	"active",
	"unpaid",
	"not-required",
}

// StudentTypes returns the configured student type values.
func StudentTypes() []string { return clone(studentTypes) }

// Terms returns the configured term values.
func Terms() []string { return clone(terms) }

// DiplomaMonths returns the diploma sitting values.
func DiplomaMonths() []string { return clone(diplomaMonths) }

// PaymentStatuses returns the payment status values.
func PaymentStatuses() []string { return clone(paymentStatuses) }

// IsStudentType reports whether value is a configured student type.
func IsStudentType(value string) bool { return contains(studentTypes, value) }

// IsTerm reports whether value is a configured term.
func IsTerm(value string) bool { return contains(terms, value) }

// IsDiplomaMonth reports whether value is a configured diploma sitting.
func IsDiplomaMonth(value string) bool { return contains(diplomaMonths, value) }

// IsPaymentStatus reports whether value is a configured payment status.
func IsPaymentStatus(value string) bool { return contains(paymentStatuses, value) }

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
