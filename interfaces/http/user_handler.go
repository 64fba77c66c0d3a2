package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/model"
	"creator-hub/usecase"
)

type IUserHandler interface {
	Login(c *gin.Context)
	Register(c *gin.Context)
}

type UserHandler struct {
	userUsecase usecase.IUserUsecase
}

func NewUserHandler(userUsecase usecase.IUserUsecase) IUserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

func (h *UserHandler) Login(c *gin.Context) {
	var req model.ReqLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := h.userUsecase.Login(c.Request.Context(), req)
	c.JSON(statusForRes(res.ResponseCode), res)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req model.ReqRegister
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := h.userUsecase.Register(c.Request.Context(), req)
	c.JSON(statusForRes(res.ResponseCode), res)
}

// statusForRes mirrors the envelope's response code onto the HTTP status so
// callers don't have to parse the body to know the outcome.
func statusForRes(code string) int {
	if code == "00" {
		return http.StatusOK
	}
	if n, err := strconv.Atoi(code); err == nil && n >= 400 && n < 600 {
		return n
	}
	return http.StatusInternalServerError
}
