package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"taskmanager/internal/api/auth"
	"taskmanager/internal/api/middleware"
	"taskmanager/internal/config"
	"taskmanager/internal/credential"
	"taskmanager/internal/model"
	"taskmanager/internal/pkg/metrics"
	"taskmanager/internal/pkg/password"
	"taskmanager/internal/session"
	"taskmanager/internal/store"
	"taskmanager/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、各业务组件以及 Gin 路由引擎。
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *gorm.DB
	router   *gin.Engine
	auth     *auth.Handler
	verifier middleware.TokenVerifier
	users    UserLookup
	tasks    TaskStore
}

// UserLookup 根据令牌中的邮箱解析用户记录。
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskStore 按归属限定的任务存储。
type TaskStore interface {
	Create(ctx context.Context, ownerID uint, description, status string) (uint, error)
	Update(ctx context.Context, ownerID, taskID uint, patch task.Patch) error
	Delete(ctx context.Context, ownerID, taskID uint) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error)
}

// NewServer 初始化 API 服务器。
//
// db 是启动时创建的进程级连接，表结构应已通过 store.Migrate 建好。
//
// 参数:
//
//	cfg: 配置对象
//	logger: 日志记录器
//	db: 数据库连接
//
// 返回值:
//
//	*Server: 初始化完成的服务器实例
func NewServer(cfg *config.Config, logger *slog.Logger, db *gorm.DB) *Server {
	users := credential.NewStore(db, password.NewBcryptHasher(cfg.Security.BcryptCost))
	tokens := session.NewManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		router:   r,
		auth:     auth.NewHandler(users, tokens, logger),
		verifier: tokens,
		users:    users,
		tasks:    task.NewRepository(db),
	}
	s.registerRoutes()
	return s
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/healthz", s.handleHealthz)

	s.router.POST("/register", s.auth.Register)
	s.router.POST("/login", s.auth.Login)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(s.verifier))
	authed.GET("/profile", s.auth.Profile)
	authed.POST("/tasks", s.handleCreateTask)
	authed.GET("/tasks", s.handleListTasks)
	authed.PUT("/tasks/:id", s.handleUpdateTask)
	authed.DELETE("/tasks/:id", s.handleDeleteTask)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := store.Ping(ctx, s.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createTaskRequest 创建任务的请求参数。
type createTaskRequest struct {
	Task   string `json:"task"`
	Status string `json:"status"`
}

// createTaskResponse 创建任务的响应。
type createTaskResponse struct {
	Message string `json:"message"`
	TaskID  uint   `json:"taskId"`
}

// updateTaskRequest 部分更新请求，未提供的字段保持不变。
type updateTaskRequest struct {
	Task   *string `json:"task"`
	Status *string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// resolveOwner 根据令牌中的邮箱查找当前用户。
//
// 查询失败与用户不存在统一返回 500。
func (s *Server) resolveOwner(c *gin.Context) (*model.User, bool) {
	email := middleware.GetEmail(c)
	user, err := s.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("resolve user failed", slog.String("email", email), slog.String("error", err.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"errorMsg": "Database error or user not found"})
		return nil, false
	}
	return user, true
}

// handleCreateTask 创建任务。
//
// POST /tasks
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errorMsg": "Invalid request body"})
		return
	}
	user, ok := s.resolveOwner(c)
	if !ok {
		return
	}

	id, err := s.tasks.Create(c.Request.Context(), user.ID, req.Task, req.Status)
	if err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("create", "error").Inc()
		s.writeError(c, "create task failed", err)
		return
	}

	metrics.TaskOperationsTotal.WithLabelValues("create", "ok").Inc()
	c.JSON(http.StatusCreated, createTaskResponse{Message: "task added successfully", TaskID: id})
}

// handleUpdateTask 部分更新任务。
//
// PUT /tasks/:id
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errorMsg": "Invalid request body"})
		return
	}
	patch := task.Patch{Task: req.Task, Status: req.Status}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"errorMsg": "No valid fields to update"})
		return
	}

	user, ok := s.resolveOwner(c)
	if !ok {
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		metrics.TaskOperationsTotal.WithLabelValues("update", "not_found").Inc()
		return
	}

	if err := s.tasks.Update(c.Request.Context(), user.ID, taskID, patch); err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("update", resultLabel(err)).Inc()
		s.writeError(c, "update task failed", err)
		return
	}

	metrics.TaskOperationsTotal.WithLabelValues("update", "ok").Inc()
	c.JSON(http.StatusOK, messageResponse{Message: "task updated successfully"})
}

// handleDeleteTask 删除任务。
//
// DELETE /tasks/:id
func (s *Server) handleDeleteTask(c *gin.Context) {
	user, ok := s.resolveOwner(c)
	if !ok {
		return
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		metrics.TaskOperationsTotal.WithLabelValues("delete", "not_found").Inc()
		return
	}

	if err := s.tasks.Delete(c.Request.Context(), user.ID, taskID); err != nil {
		metrics.TaskOperationsTotal.WithLabelValues("delete", resultLabel(err)).Inc()
		s.writeError(c, "delete task failed", err)
		return
	}

	metrics.TaskOperationsTotal.WithLabelValues("delete", "ok").Inc()
	c.JSON(http.StatusOK, messageResponse{Message: "task deleted successfully"})
}

// handleListTasks 返回当前用户的全部任务。
//
// GET /tasks
func (s *Server) handleListTasks(c *gin.Context) {
	user, ok := s.resolveOwner(c)
	if !ok {
		return
	}
	tasks, err := s.tasks.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		s.writeError(c, "list tasks failed", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{} // 保证 JSON 为 [] 而不是 null
	}
	c.JSON(http.StatusOK, tasks)
}

// parseTaskID 解析路径中的任务 ID。非数字的 ID 不可能存在，按 404 处理。
func parseTaskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errorMsg": "task not found"})
		return 0, false
	}
	return uint(id), true
}
