package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/repo"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errBadRequest)
}

// fail writes err as {"error": ...} with a status derived from its kind.
func (s *Server) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, repo.ErrInvalid):
		code = http.StatusBadRequest
	case errors.Is(err, repo.ErrNotFound):
		code = http.StatusNotFound
	default:
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// bindBody decodes the JSON body into dest and runs its binding rules.
func bindBody(c *gin.Context, dest any) error {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		problems := make([]string, 0, len(fields))
		for _, f := range fields {
			problems = append(problems, fieldProblem(f))
		}
		return badRequest("%s", strings.Join(problems, "; "))
	}
	return badRequest("invalid body: %v", err)
}

func fieldProblem(f validator.FieldError) string {
	name := f.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch f.Tag() {
	case "required":
		return name + " is required"
	case "min":
		if f.Kind() == reflect.Slice {
			return name + " must not be empty"
		}
		return name + " must be at least " + f.Param()
	case "gt":
		return name + " must be greater than " + f.Param()
	}
	return fmt.Sprintf("%s fails %s=%s", name, f.Tag(), f.Param())
}

func idQuery(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.Query("id"))
	if raw == "" {
		return 0, badRequest("id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// intQuery returns the non-negative integer parameter name, or zero when it
// is absent.
func intQuery(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return n, nil
}

func deleted(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
