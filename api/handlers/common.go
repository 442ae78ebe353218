package handlers

import (
	"net/http"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/inboxlab/mailbridge/api/errors"
	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/internal/tracing"
)

// validateEmailSyntax validates and cleans a single email address
func validateEmailSyntax(emailAddress string) (string, error) {
	if emailAddress == "" {
		return "", errors.New("email address is empty")
	}

	validation := mailvalidate.ValidateEmailSyntax(emailAddress)
	if !validation.IsValid {
		return "", errors.New("invalid email format")
	}

	return validation.CleanEmail, nil
}

// validateAccount collects the field errors shared by every mail operation.
// The account email is replaced with its cleaned form on success.
func validateAccount(errs *custom_err.MultiErrors, account *dto.MailAccount) {
	cleanEmail, err := validateEmailSyntax(account.Email)
	if err != nil {
		errs.Add("email", "please provide a valid email address", err)
	} else {
		account.Email = cleanEmail
	}

	if account.Password == "" {
		errs.Add("password", "please provide the account password", errors.New("password is empty"))
	}

	if account.Protocol != "" && !account.Protocol.IsReceive() {
		errs.Add("receiveProtocol", "receiveProtocol must be imap or pop3", errors.Errorf("unknown receive protocol %q", account.Protocol))
	}
}

// respondInvalidRequest rejects a request whose body could not be bound.
func respondInvalidRequest(c *gin.Context, span opentracing.Span, err error) {
	tracing.TraceErr(span, err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "details": err.Error()})
}

// respondValidationErrors rejects a request that bound but failed field checks.
func respondValidationErrors(c *gin.Context, span opentracing.Span, errs *custom_err.MultiErrors) {
	tracing.TraceErr(span, errs)
	c.JSON(http.StatusBadRequest, errs)
}

// respondOperationFailed renders an executed operation that did not succeed.
// Executed operations always answer 200 with the success flag in the body;
// only validation failures and panics use other status codes.
func respondOperationFailed(c *gin.Context, span opentracing.Span, err error) {
	tracing.TraceErr(span, err)
	c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
}
