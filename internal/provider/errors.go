package provider

import "fmt"

// ProviderError describes a failed upstream fetch. It never leaves FetchPage;
// callers of Fetch may inspect it with errors.As.
type ProviderError struct {
	Op         string // request, status, decode, api
	StatusCode int
	Code       string // provider error code, when reported
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Code, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("provider %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
