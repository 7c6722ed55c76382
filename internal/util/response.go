package util

import (
	"net/http"

	constant "github.com/SeakMengs/certportal/internal/constant"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func BuildResponseSuccess(data any) Response {
	return Response{
		Success: true,
		Message: constant.REQUEST_SUCCESSFUL,
		Data:    data,
	}
}

func ResponseSuccess(ctx *gin.Context, data any) {
	ResponseStatus(ctx, http.StatusOK, data)
}

// Same as ResponseSuccess with a different status, e.g. 201 or 202
func ResponseStatus(ctx *gin.Context, code int, data any) {
	if data == nil {
		data = gin.H{}
	}

	ctx.JSON(code, BuildResponseSuccess(data))
	ctx.Abort()
}

type PaginatedData struct {
	Items     any   `json:"items"`
	Total     int64 `json:"total"`
	Page      uint  `json:"page"`
	PageSize  uint  `json:"pageSize"`
	TotalPage int   `json:"totalPage"`
}

func ResponsePaginated(ctx *gin.Context, items any, total int64, page, pageSize uint) {
	ResponseSuccess(ctx, PaginatedData{
		Items:     items,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		TotalPage: CalculateTotalPage(total, pageSize),
	})
}

func BuildResponseFailed(message string, err any, data any) Response {
	if message == "" {
		message = constant.REQUEST_UNSUCCESSFUL
	}

	// Sometimes we define err type any but err type is error
	if e, ok := err.(error); ok {
		err = GenerateErrorMessages(e)
	}

	if err == nil {
		err = gin.H{}
	}

	if data == nil {
		data = gin.H{}
	}

	return Response{
		Success: false,
		Message: message,
		Errors:  err,
		Data:    data,
	}
}

func ResponseFailed(ctx *gin.Context, code int, message string, err any, data any) {
	ctx.JSON(code, BuildResponseFailed(message, err, data))
	ctx.Abort()
}
