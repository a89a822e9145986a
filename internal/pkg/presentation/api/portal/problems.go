package portal

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
)

// reportProblem writes an error response in the same problem report shape
// the portal itself uses, so proxied and direct callers see one format.
func reportProblem(w http.ResponseWriter, code int, detail string) {
	body, _ := json.Marshal(struct {
		Detail string `json:"detail"`
	}{Detail: detail})

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	w.Write(body)
}

// reportError maps the engine error taxonomy onto http status codes.
func reportError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrMalformedAccession):
		reportProblem(w, http.StatusBadRequest, err.Error())
	case stderrors.Is(err, errors.ErrRejected):
		reportProblem(w, http.StatusBadRequest, err.Error())
	case stderrors.Is(err, errors.ErrNotFound):
		reportProblem(w, http.StatusNotFound, err.Error())
	case stderrors.Is(err, errors.ErrRemoteFetch):
		reportProblem(w, http.StatusBadGateway, err.Error())
	case stderrors.Is(err, errors.ErrTransient):
		reportProblem(w, http.StatusBadGateway, err.Error())
	default:
		reportProblem(w, http.StatusInternalServerError, err.Error())
	}
}
