package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/screener/internal/domain"
)

type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeInvalidQuery     errorCode = "invalid_query"
	codeInvalidInput     errorCode = "validation_failed"
	codeUnauthorized     errorCode = "unauthorized"
	codeNotFound         errorCode = "not_found"
	codeMethodNotAllowed errorCode = "method_not_allowed"
	codeBudgetExceeded   errorCode = "budget_exceeded"
	codeProviderError    errorCode = "embedding_provider_error"
	codeRetrievalOff     errorCode = "retrieval_disabled"
	codeStoreUnavailable errorCode = "store_unavailable"
	codeInternal         errorCode = "internal_error"
)

type errorResponse struct {
	Error string    `json:"error"`
	Code  errorCode `json:"code"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// defaultErrorHandlers is the ordered sentinel mapping for every route.
var defaultErrorHandlers = []errorHandler{
	inputHandler(domain.ErrInvalidQuery, codeInvalidQuery),
	inputHandler(domain.ErrInvalidNamespace, codeInvalidInput),
	inputHandler(domain.ErrInvalidDocument, codeInvalidInput),
	sentinelHandler(domain.ErrRetrievalDisabled, http.StatusServiceUnavailable, codeRetrievalOff),
	sentinelHandler(domain.ErrBudgetExceeded, http.StatusPaymentRequired, codeBudgetExceeded),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// sentinelHandler maps a sentinel to a status and hides everything wrapped around it.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// inputHandler maps a validation sentinel to 400. The full message describes
// what the caller sent, so it is returned as is.
func inputHandler(sentinel error, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}
