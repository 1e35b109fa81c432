package retry

// Outcome is the closed result surface of a single transfer attempt. Backend
// clients normalize whatever their wire call produced into an Outcome before
// classification, so the policy never pattern-matches on raw transport types.
type Outcome struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Body holds a snippet of the response body for diagnostics.
	Body []byte
	// Err is the transport error when the attempt never produced a response.
	Err error
}

// Success builds an Outcome for a completed request.
func Success(status int) Outcome {
	return Outcome{Status: status}
}

// HTTPError builds an Outcome for a request that completed with a
// non-success status.
func HTTPError(status int, body []byte) Outcome {
	return Outcome{Status: status, Body: body}
}

// NetworkError builds an Outcome for a request that failed before any
// response arrived (connect errors, timeouts, cancellations).
func NetworkError(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the attempt succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Status >= 200 && o.Status < 300
}
