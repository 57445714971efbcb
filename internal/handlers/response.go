package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/resys-shop/backend/internal/domain"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondDomainError maps the domain error taxonomy onto HTTP statuses.
// Internal causes render as an opaque 500.
func RespondDomainError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeConflict:
		status = http.StatusConflict
	}
	msg := "internal error"
	if code != domain.CodeInternal && err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    string(code),
			Reason:  domain.ReasonOf(err),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
