package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrFetch            = errors.New("listing unreachable and no snapshot available") // Fatal for the source's run
	ErrClientHTTPError  = errors.New("client HTTP error (4xx)")                       // Wraps original error/status
	ErrServerHTTPError  = errors.New("server HTTP error (5xx)")                       // Wraps original error/status
	ErrOtherHTTPError   = errors.New("other HTTP error (non-2xx)")                    // Wraps original error/status
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	ErrParsing          = errors.New("parsing error")     // Wraps specific parsing error (HTML, URL, CSV)
	ErrTranslation      = errors.New("translation error") // Wraps the translation service error
	ErrStore            = errors.New("catalog store error")
	ErrConfigValidation = errors.New("configuration validation error")
	ErrUnknownSource    = errors.New("unknown source id")
)

// CategorizeError maps an error to a predefined category string for logging and
// run summaries.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrFetch):
		underlying := errors.Unwrap(err)
		if underlying != nil {
			msg := strings.ToLower(underlying.Error())
			if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
				return "Fetch_NetworkTimeout"
			}
			if strings.Contains(msg, "connection refused") {
				return "Fetch_ConnectionRefused"
			}
			if strings.Contains(msg, "no such host") {
				return "Fetch_DNSLookup"
			}
		}
		return "Fetch_Unavailable"
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_4xx"
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "CSV") {
			return "Content_ParsingCSV"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrTranslation):
		return "Translation_Failed"
	case errors.Is(err, ErrStore):
		return "Store_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrUnknownSource):
		return "Config_UnknownSource"
	}

	// Context errors
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Network errors not wrapped by custom sentinels
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerMsg, "timeout") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerMsg, "tls") || strings.Contains(lowerMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}

	return "Unknown"
}
