package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
)

// ContentNotifier is told about admin mutations so open dashboards refresh.
type ContentNotifier interface {
	ContentChanged(entity, action, id string)
}

type noopNotifier struct{}

func (noopNotifier) ContentChanged(string, string, string) {}

func notifierOrNoop(n ContentNotifier) ContentNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func respondError(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindInternal:
		log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	case apperr.KindCatalogUnavailable:
		log.Warn("catalog unavailable", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.Message(err), "code": kind})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": apperr.KindValidation})
}

// bindMessages picks the client message for a failed binding rule. Keys are
// tried as "Field.tag", then "Field", then "tag".
type bindMessages map[string]string

// bindJSON decodes the body and runs its binding rules, answering 400 on the
// first failure.
func bindJSON(c *gin.Context, dst interface{}, msgs bindMessages) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, msgs.forError(err))
		return false
	}
	return true
}

func (m bindMessages) forError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		for _, key := range []string{fe.Field() + "." + fe.Tag(), fe.Field(), fe.Tag()} {
			if msg, ok := m[key]; ok {
				return msg
			}
		}
	}
	return "Datos inválidos"
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "ID inválido")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUIDQuery returns nil for an absent parameter and responds 400 for
// a malformed one.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "Parámetro "+name+" inválido")
		return nil, false
	}
	return &id, true
}
