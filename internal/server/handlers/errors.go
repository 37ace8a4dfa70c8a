package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/remitos/internal/service/ledger"
	"github.com/mamadbah2/remitos/internal/service/submission"
	"github.com/mamadbah2/remitos/pkg/clients/blobstore"
)

const (
	kindStorage       = "storage"
	kindValidation    = "validation"
	kindMissingLedger = "missing_ledger"
	kindInternal      = "internal"
)

type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	State    string `json:"state,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// statusFor maps a submission failure to its HTTP status and failure kind.
func statusFor(err error) (int, string) {
	var (
		verr *submission.ValidationError
		serr *blobstore.StorageError
	)
	switch {
	case errors.Is(err, submission.ErrNoLedgerHandle):
		return http.StatusBadRequest, kindMissingLedger
	case errors.As(err, &verr):
		return http.StatusBadRequest, kindValidation
	case errors.As(err, &serr):
		return http.StatusBadGateway, kindStorage
	}

	switch kind := ledger.KindOf(err); kind {
	case ledger.KindNotFound:
		return http.StatusNotFound, string(kind)
	case ledger.KindPermissionDenied:
		return http.StatusForbidden, string(kind)
	case ledger.KindMisconfigured:
		return http.StatusInternalServerError, string(kind)
	case ledger.KindOther:
		return http.StatusBadGateway, string(kind)
	}

	return http.StatusInternalServerError, kindInternal
}

func abortWithSubmissionError(c *gin.Context, sub *submission.Submission, err error) {
	status, kind := statusFor(err)
	body := errorResponse{Error: err.Error(), Kind: kind}
	if sub != nil {
		body.State = string(sub.State)
		body.ImageURL = sub.Record.ImageURL
	}
	c.AbortWithStatusJSON(status, body)
}
