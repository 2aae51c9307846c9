package router

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/carbiooai/carbioo-api/internal/log"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/gin-gonic/gin/binding"
	ginjson "github.com/gin-gonic/gin/codec/json"
)

var errEmptyBody = errors.New("request body is empty")

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

// DecodeJSON reads the request body with gin's JSON codec without running
// binding validation. Services normalize the payload before validating it,
// so tags must not be checked against the raw input.
func DecodeJSON(ctx *RequestContext, obj any) error {
	if ctx.Request == nil || ctx.Request.Body == nil || ctx.Request.Body == http.NoBody {
		return errEmptyBody
	}

	decoder := ginjson.API.NewDecoder(ctx.Request.Body)
	if binding.EnableDecoderUseNumber {
		decoder.UseNumber()
	}
	if binding.EnableDecoderDisallowUnknownFields {
		decoder.DisallowUnknownFields()
	}

	return decoder.Decode(obj)
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    message,
	}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusTooManyRequests,
		Data:       data,
		Message:    "Too many requests. Please try again later.",
	}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusBadRequest,
		Data:       payload,
		Message:    message,
	}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusNotFound,
		Data:       nil,
		Message:    message,
	}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Data:       nil,
		Message:    message,
	}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

// AppErrorResult renders err with its HTTP status and public message. Field
// level validation failures are listed in data, named after model's json tags.
func AppErrorResult(err error, model any) *ServiceResult {
	var data any
	if details := apperrors.ValidationDetails(err, model); len(details) > 0 {
		data = details
	}

	return ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), data)
}

// JSONResult writes body as-is, without the code/data/message envelope.
func JSONResult(statusCode int, body any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       body,
		bare:       true,
	}
}

// RedirectResult answers with 302 Found pointing at location.
func RedirectResult(location string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusFound,
		location:   location,
	}
}

func ParseIDParam(ctx *RequestContext, paramName string) (uint, *ServiceResult) {
	logger := GetLogger(ctx)

	idParam := ctx.Param(paramName)
	id, err := strconv.ParseUint(idParam, 10, 32)

	if err != nil {
		logger.Error("Invalid ID parameter", "param", paramName, "value", idParam, "error", err)
		return 0, BadRequestResult("Invalid ID parameter", nil)
	}

	return uint(id), nil
}
