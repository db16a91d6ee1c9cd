package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/worldsim/internal/auth"
	"github.com/annel0/worldsim/internal/game"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBroadcastText = 255

// World — то, что административному API нужно от игры
type World interface {
	Stats() game.Snapshot
	OnlinePlayers() []game.PlayerInfo
	Broadcast(ctx context.Context, author, text string) bool
}

// Config содержит зависимости административного сервера
type Config struct {
	Addr      string // адрес прослушивания, например ":8088"
	Service   string // имя сервиса для трейсов и метрик
	World     World
	Operators auth.OperatorRepository
	Tokens    *auth.TokenIssuer
	Logger    *logging.Logger

	// Registerer получает HTTP-метрики; nil — без метрик.
	// Gatherer отдаётся на /metrics; nil — маршрут не регистрируется.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server — административный HTTP API: состояние мира, список игроков, объявления
type Server struct {
	router    *gin.Engine
	world     World
	operators auth.OperatorRepository
	tokens    *auth.TokenIssuer
	logger    *logging.Logger
	addr      string
	uptime    *uptime
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// BroadcastRequest — текст объявления
type BroadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New собирает сервер. World, Operators и Tokens обязательны.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.World == nil:
		return nil, errors.New("api: world is required")
	case cfg.Operators == nil:
		return nil, errors.New("api: operator repository is required")
	case cfg.Tokens == nil:
		return nil, errors.New("api: token issuer is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8088"
	}
	if cfg.Service == "" {
		cfg.Service = "worldsim"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetAPILogger()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Service))
	router.Use(requestLogger(logger))
	if cfg.Registerer != nil {
		router.Use(newHTTPMetrics(cfg.Registerer).handler())
	}
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	s := &Server{
		router:    router,
		world:     cfg.World,
		operators: cfg.Operators,
		tokens:    cfg.Tokens,
		logger:    logger,
		addr:      cfg.Addr,
		uptime:    newUptime(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/auth/login", s.handleLogin)

	protected := api.Group("/")
	protected.Use(s.jwtMiddleware())
	{
		protected.GET("/status", s.handleStatus)
		protected.GET("/players", s.handlePlayers)

		admin := protected.Group("/admin")
		admin.Use(s.adminMiddleware())
		admin.POST("/broadcast", s.handleBroadcast)
	}
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler { return s.router }

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🌐 Административный API слушает %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("🛑 Административный API остановлен")
	return nil
}

// handleLogin выдаёт токен оператору
func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{Message: "Неверный формат запроса"})
		return
	}

	op, err := s.operators.ValidateCredentials(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("🔒 Неудачный вход оператора %q с %s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, LoginResponse{Message: "Неверное имя пользователя или пароль"})
		return
	}
	if err != nil {
		s.logger.Error("❌ Проверка оператора %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, LoginResponse{Message: "Внутренняя ошибка сервера"})
		return
	}

	token, err := s.tokens.Issue(op)
	if err != nil {
		s.logger.Error("❌ Выпуск токена для %q: %v", op.Username, err)
		c.JSON(http.StatusInternalServerError, LoginResponse{Message: "Внутренняя ошибка сервера"})
		return
	}

	s.logger.Info("🔑 Оператор %s вошёл", op.Username)
	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Вход выполнен",
		IsAdmin: op.IsAdmin,
	})
}

// handleStatus возвращает снимок состояния мира и процесса
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние сервера",
		Data: gin.H{
			"world":   s.world.Stats(),
			"uptime":  s.uptime.String(),
			"runtime": runtimeStats(),
		},
	})
}

// handlePlayers возвращает игроков онлайн
func (s *Server) handlePlayers(c *gin.Context) {
	players := s.world.OnlinePlayers()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Игроков онлайн: %d", len(players)),
		Data:    players,
	})
}

// handleBroadcast рассылает объявление всем игрокам
func (s *Server) handleBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Неверный формат запроса"})
		return
	}
	if len(req.Text) > maxBroadcastText {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Слишком длинное объявление"})
		return
	}

	author := c.GetString(ctxUsername)
	if !s.world.Broadcast(c.Request.Context(), author, req.Text) {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "Пустое объявление"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Объявление отправлено"})
}

// handleHealth проверка состояния сервера
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
