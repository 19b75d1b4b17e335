package checkout

// Outcome is the terminal state shown to the shopper once a payment flow
// ends.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
	OutcomeError   Outcome = "error"
)

// Outcomes lists every terminal outcome.
var Outcomes = []Outcome{OutcomeSuccess, OutcomePending, OutcomeFailed, OutcomeError}

// Path returns the page the shopper is sent to for the outcome.
func (o Outcome) Path() string {
	switch o {
	case OutcomeSuccess, OutcomePending, OutcomeFailed:
		return "/" + string(o)
	default:
		return "/" + string(OutcomeError)
	}
}

// OutcomeFor maps a result code to its terminal outcome. Any code outside
// Authorised, Pending, Received and Refused ends as an error.
func OutcomeFor(code ResultCode) Outcome {
	switch code {
	case ResultAuthorised:
		return OutcomeSuccess
	case ResultPending, ResultReceived:
		return OutcomePending
	case ResultRefused:
		return OutcomeFailed
	default:
		return OutcomeError
	}
}
