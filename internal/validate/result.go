package validate

// Status classifies the outcome of validating one field.
type Status int

const (
	// Rejected means the input failed validation and must not be stored.
	Rejected Status = iota
	// AcceptedCanonical means the input was recognised and normalised.
	AcceptedCanonical
	// AcceptedRaw means the input was accepted as given without
	// normalisation, e.g. an appointment type outside the catalog.
	AcceptedRaw
)

// Result is the outcome of a single field validation. Value holds the
// normalised (or echoed) value when the status is an accepting one; Err
// holds the user-facing message when the status is Rejected.
type Result struct {
	Status Status
	Value  string
	Err    string
}

// OK reports whether the value was accepted in either form.
func (r Result) OK() bool {
	return r.Status != Rejected
}

func canonical(value string) Result {
	return Result{Status: AcceptedCanonical, Value: value}
}

func raw(value string) Result {
	return Result{Status: AcceptedRaw, Value: value}
}

func rejected(msg string) Result {
	return Result{Status: Rejected, Err: msg}
}
