package handler

import (
	"context"
	"errors"
	"net/http"

	"auction-ledger/internal/accounts"
	model "auction-ledger/internal/models"
	"auction-ledger/services/auction/helpers"
	"auction-ledger/utils"

	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (model.User, error)
	Login(ctx context.Context, username, password string) (accounts.Session, error)
	Logout(ctx context.Context, token string) error
}

type AccountHandler struct {
	accounts AccountService
}

func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterHandler handles POST /register
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Confirmation: req.Confirmation,
	})
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "registered successfully")
	helpers.LogSuccess("RegisterHandler", "registered successfully", map[string]any{"user_id": user.ID, "username": user.Username})
}

// LoginHandler handles POST /login
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	sess, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.LoginResponse{
		Token:     sess.Token,
		ExpiresAt: helpers.FormatTime(sess.ExpiresAt),
		UserID:    sess.User.ID,
		Username:  sess.User.Username,
	}, "logged in successfully")
	helpers.LogSuccess("LoginHandler", "logged in successfully", map[string]any{"user_id": sess.User.ID})
}

// LogoutHandler handles POST /logout
func (h *AccountHandler) LogoutHandler(c *gin.Context) {
	token, ok := helpers.BearerToken(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("authentication required"), "authentication required")
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), token); err != nil {
		helpers.RespondError(c, "LogoutHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "logged out successfully")
	if id, ok := helpers.CurrentIdentity(c); ok {
		helpers.LogSuccess("LogoutHandler", "logged out successfully", map[string]any{"user_id": id.UserID})
	}
}
