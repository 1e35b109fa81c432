// Package retry classifies transfer failures and computes bounded
// exponential backoff for the upload orchestrator.
//
// Backend clients reduce every attempt to an Outcome (success, HTTP error or
// network error). Classify turns a failed Outcome into a Classification that
// says whether retrying can help and which failure kind to report. Delay and
// Sleep implement capped exponential backoff with jitter; Sleep is
// cancellation-aware so deadline propagation can be tested without real
// wall-clock waits.
package retry
