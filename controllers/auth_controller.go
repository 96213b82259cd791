package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/middleware"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

type AuthController struct {
	auth         *services.AuthService
	secureCookie bool
	log          *logger.Logger
}

func NewAuthController(auth *services.AuthService, secureCookie bool, log *logger.Logger) *AuthController {
	return &AuthController{auth: auth, secureCookie: secureCookie, log: log.With("controller", "auth")}
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var registerMessages = bindMessages{
	"Email.email":  "Correo electrónico inválido",
	"Password.min": "La contraseña debe tener al menos 6 caracteres",
	"required":     "Todos los campos son requeridos",
}

var loginMessages = bindMessages{
	"Email.email": "Correo electrónico inválido",
	"required":    "Correo y contraseña son requeridos",
}

// Register godoc
// @Summary      Create a student account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  services.RegisterInput  true  "Account data"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, &input, registerMessages) {
		return
	}
	user, err := ac.auth.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Usuario registrado exitosamente",
		"user":    user,
	})
}

// Login godoc
// @Summary      Start a session
// @Description  Sets the session_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  loginInput  true  "Credentials"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var input loginInput
	if !bindJSON(c, &input, loginMessages) {
		return
	}
	user, token, err := ac.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ac.auth.SessionTTL().Seconds()), "/", "", ac.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Inicio de sesión exitoso",
		"user":    user,
	})
}

// Logout godoc
// @Summary      End the current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.auth.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ac.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada"})
}

// Me godoc
// @Summary      Current user
// @Description  Anonymous callers get {"user": null}.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]models.User
// @Router       /auth/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}
