package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"brokenexp/internal/apperr"
	"brokenexp/internal/middleware"
	"brokenexp/internal/models"
	"brokenexp/internal/utils"

	"github.com/charmbracelet/log/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthStore interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	EnsureProfile(ctx context.Context, userID, email string) (models.Profile, error)
}

type AuthHandler struct {
	store  AuthStore
	tokens *utils.TokenIssuer
	logger *log.Logger
}

func NewAuthHandler(st AuthStore, tokens *utils.TokenIssuer, logger *log.Logger) *AuthHandler {
	return &AuthHandler{store: st, tokens: tokens, logger: logger}
}

type signupRequest struct {
	Name     string `json:"name" form:"name" binding:"max=80"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

var errBadCredentials = errors.New("invalid email or password")

// signup creates the account and its profile.
func (h *AuthHandler) signup(ctx context.Context, req signupRequest) (models.User, models.Profile, error) {
	if !passwordStrong(req.Password) {
		return models.User{}, models.Profile{}, apperr.Invalid("password", "must contain a letter and a digit")
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.User{}, models.Profile{}, err
	}
	user, err := h.store.CreateUser(ctx, req.Email, hash, req.Name)
	if errors.Is(err, apperr.ErrConflict) {
		return models.User{}, models.Profile{}, apperr.Invalid("email", "is already registered")
	}
	if err != nil {
		return models.User{}, models.Profile{}, err
	}
	profile, err := h.store.EnsureProfile(ctx, user.ID, user.Email)
	return user, profile, err
}

// login checks credentials and makes sure the profile exists.
func (h *AuthHandler) login(ctx context.Context, req loginRequest) (models.User, models.Profile, error) {
	user, err := h.store.UserByEmail(ctx, req.Email)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !utils.CheckPassword(user.Password, req.Password)) {
		return models.User{}, models.Profile{}, errBadCredentials
	}
	if err != nil {
		return models.User{}, models.Profile{}, err
	}
	profile, err := h.store.EnsureProfile(ctx, user.ID, user.Email)
	return user, profile, err
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Title": "Sign in", "Next": c.Query("next")})
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	Render(c, http.StatusOK, "auth/signup.html", gin.H{"Title": "Create account"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		Render(c, http.StatusBadRequest, "auth/login.html", gin.H{"Title": "Sign in", "Error": publicMessage(bindError(err), http.StatusBadRequest)})
		return
	}
	user, _, err := h.login(c.Request.Context(), req)
	if errors.Is(err, errBadCredentials) {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Title": "Sign in", "Error": "Invalid email or password", "Email": req.Email})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(c.PostForm("next")))
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		Render(c, http.StatusBadRequest, "auth/signup.html", gin.H{"Title": "Create account", "Error": publicMessage(bindError(err), http.StatusBadRequest)})
		return
	}
	user, _, err := h.signup(c.Request.Context(), req)
	if err != nil {
		if apperr.Status(err) == http.StatusBadRequest {
			Render(c, http.StatusBadRequest, "auth/signup.html", gin.H{"Title": "Create account", "Error": publicMessage(err, http.StatusBadRequest), "Email": req.Email, "Name": req.Name})
			return
		}
		abortWithError(c, err)
		return
	}
	h.logger.Info("user signed up", "user", user.ID)

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      models.User    `json:"user"`
	Profile   models.Profile `json:"profile"`
}

// APISignup is POST /api/auth/signup.
func (h *AuthHandler) APISignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	user, profile, err := h.signup(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user, profile)
}

// APILogin is POST /api/auth/login.
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	user, profile, err := h.login(c.Request.Context(), req)
	if errors.Is(err, errBadCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user, profile)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, code int, user models.User, profile models.Profile) {
	token, exp, err := h.tokens.Issue(user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(code, sessionResponse{Token: token, ExpiresAt: exp, User: user, Profile: profile})
}

// Me is GET /api/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	profile, err := h.store.EnsureProfile(c.Request.Context(), user.ID, user.Email)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

func passwordStrong(p string) bool {
	return strings.ContainsAny(p, "0123456789") &&
		strings.IndexFunc(p, func(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }) >= 0
}

// safeNext only follows local redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
