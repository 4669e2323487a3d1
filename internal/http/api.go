package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskloop/internal/domain"
	"taskloop/internal/service"
)

// AuthHeader carries the raw token on every protected request and the
// freshly issued token on register/login responses.
const AuthHeader = "x-auth"

const (
	ctxUserKey  = "authUser"
	ctxTokenKey = "authToken"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users service.UserService
	todos service.TodoService
}

func NewHandler(users service.UserService, todos service.TodoService) *Handler {
	return &Handler{
		users: users,
		todos: todos,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.POST("/users", h.register)
	router.POST("/users/login", h.login)

	authed := router.Group("/", h.authenticate())
	{
		authed.GET("/users/me", h.me)
		authed.DELETE("/users/me/token", h.logout)

		authed.POST("/todos", h.createTodo)
		authed.GET("/todos", h.listTodos)
		authed.GET("/todos/:id", h.getTodo)
		authed.PATCH("/todos/:id", h.updateTodo)
		authed.DELETE("/todos/:id", h.deleteTodo)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+AuthHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", AuthHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authenticate resolves the x-auth header to a user before any protected
// handler runs. Missing, malformed, or revoked tokens abort with a bare
// 401; the resolved user and the exact raw token are stashed for
// downstream handlers (logout removes precisely that token).
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AuthHeader)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		user, err := h.users.FindByToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(ctxUserKey).(*domain.User)
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.users.GenerateAuthToken(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header(AuthHeader, token)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusUnauthorized)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// generic response regardless of cause
		c.Status(http.StatusUnauthorized)
		return
	}

	token, err := h.users.GenerateAuthToken(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header(AuthHeader, token)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(currentUser(c)))
}

func (h *Handler) logout(c *gin.Context) {
	user := currentUser(c)
	token := c.MustGet(ctxTokenKey).(string)

	if err := h.users.RemoveToken(c.Request.Context(), user, token); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

type createTodoRequest struct {
	Text string `json:"text" binding:"required"`
}

type updateTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

func (h *Handler) createTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), currentUser(c).ID, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) listTodos(c *gin.Context) {
	todos, err := h.todos.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]TodoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(todos[i])
	}
	c.JSON(http.StatusOK, gin.H{"todos": resp})
}

func (h *Handler) getTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) updateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.Update(c.Request.Context(), currentUser(c).ID, id, domain.TodoPatch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) deleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	userID := currentUser(c).ID
	todo, err := h.todos.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.todos.Delete(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

// todoID parses the :id segment. Malformed ids read the same as unknown
// ones: a bare 404, never a server error.
func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Status(http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Reason})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrEmailTaken.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, service.ErrTodoNotFound):
		c.Status(http.StatusNotFound)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// UserResponse is the public user representation: only the identifier
// and email ever leave the server.
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type TodoResponse struct {
	ID          int64   `json:"id"`
	Text        string  `json:"text"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
	}
}

func todoToResponse(todo domain.Todo) TodoResponse {
	resp := TodoResponse{
		ID:        todo.ID,
		Text:      todo.Text,
		Completed: todo.Completed,
		CreatedAt: todo.CreatedAt.Format(time.RFC3339),
		UpdatedAt: todo.UpdatedAt.Format(time.RFC3339),
	}
	if todo.CompletedAt != nil {
		v := todo.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}
