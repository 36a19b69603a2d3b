package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/deepresearch-backend/internal/shared"
)

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, shared.ErrorResponse{
    Error:   code,
    Message: msg,
  })
}

func RespondErrorWithDetails(c *gin.Context, status int, code string, err error, details map[string]any) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, shared.ErrorResponse{
    Error:   code,
    Message: msg,
    Details: details,
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}
