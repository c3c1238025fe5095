package model

import "errors"

// ErrorKind classifies a failed client operation
type ErrorKind string

const (
	KindNotFound       ErrorKind = "not_found"       // Report id unknown (HTTP 404)
	KindServiceError   ErrorKind = "service_error"   // Any other non-2xx response
	KindTransportError ErrorKind = "transport_error" // Network, timeout, parse or schema failure
	KindExportError    ErrorKind = "export_error"    // Document retrieval failed
)

// Sentinel errors, one per kind, for errors.Is matching
var (
	ErrNotFound       = errors.New("not found")
	ErrServiceError   = errors.New("service error")
	ErrTransportError = errors.New("transport error")
	ErrExportError    = errors.New("export error")
)

// Sentinel returns the sentinel error for the kind
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindServiceError:
		return ErrServiceError
	case KindExportError:
		return ErrExportError
	default:
		return ErrTransportError
	}
}

// KindOf classifies err, defaulting to KindTransportError. An export failure
// is reported as such whatever caused it.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrExportError):
		return KindExportError
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrServiceError):
		return KindServiceError
	default:
		return KindTransportError
	}
}

// FetchStatus is the tag of a FetchState
type FetchStatus int

const (
	StatusIdle FetchStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s FetchStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// FetchState is the report fetcher's only mutable state. It is replaced
// wholesale on every transition; Report is set only when Loaded and Kind
// only when Failed.
type FetchState struct {
	Status FetchStatus
	ID     string          // Id the state refers to (empty when Idle)
	Report *AnalysisReport // Loaded only
	Kind   ErrorKind       // Failed only
	Err    error           // Failed only, underlying cause
}

// Idle returns the initial state
func Idle() FetchState {
	return FetchState{Status: StatusIdle}
}

// Loading returns the in-flight state for id
func Loading(id string) FetchState {
	return FetchState{Status: StatusLoading, ID: id}
}

// Loaded returns the success state for the requested id
func Loaded(id string, report *AnalysisReport) FetchState {
	return FetchState{Status: StatusLoaded, ID: id, Report: report}
}

// Failed returns the failure state for id
func Failed(id string, err error) FetchState {
	return FetchState{Status: StatusFailed, ID: id, Kind: KindOf(err), Err: err}
}
