// Package breaker implements a per-backend circuit breaker for the upload
// orchestrator.
//
// Each named backend gets its own circuit: closed (attempts allowed), open
// (attempts blocked) and half-open (one probe allowed after the reset
// timeout). The open-to-half-open transition happens lazily on the next
// IsOpen call, so no background goroutine is needed.
//
// Circuit state lives behind the Store interface. MemoryStore keeps it
// per-process with one lock per backend; RedisStore shares it across
// processes using atomic Lua updates.
//
//	cb := breaker.New(breaker.WithFailureThreshold(3))
//	if !cb.IsOpen(ctx, "primary") {
//	    // attempt the transfer, then record the result
//	}
package breaker
