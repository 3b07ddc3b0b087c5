package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/elearning-api/pkg/errors"
)

// Type classifies an envelope for clients.
type Type string

const (
	TypeSuccess Type = "SUCCESS"
	TypeError   Type = "ERROR"
	TypeWarning Type = "WARNING"
	TypeInfo    Type = "INFO"
)

// Envelope represents the common response contract.
type Envelope struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data"`
	Error   *appErrors.Error       `json:"error,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends an envelope with an explicit type and message.
func JSON(c *gin.Context, status int, typ Type, message string, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	if data == nil {
		data = gin.H{}
	}
	envelope := Envelope{Type: typ, Message: message, Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// OK responds with HTTP 200 and a SUCCESS envelope.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, TypeSuccess, message, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Type: TypeError, Message: appErr.Message, Data: gin.H{}, Error: appErr})
}

// Attachment streams a rendered file to the client.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}
