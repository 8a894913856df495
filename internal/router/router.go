package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/medbridge/portal-api/internal/handler/appointment"
	"github.com/medbridge/portal-api/internal/handler/clinical"
	"github.com/medbridge/portal-api/internal/handler/health"
	promhandler "github.com/medbridge/portal-api/internal/handler/prometheus"
	"github.com/medbridge/portal-api/internal/handler/notification"
	"github.com/medbridge/portal-api/internal/middleware"
	"github.com/medbridge/portal-api/internal/ws"
)

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	appointmentH  *appointment.Handler
	notificationH *notification.Handler
	clinicalH     *clinical.Handler
	healthH       *health.Handler
	promH         *promhandler.Handler
	wsH           *ws.Handler
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	appointmentH *appointment.Handler,
	notificationH *notification.Handler,
	clinicalH *clinical.Handler,
	healthH *health.Handler,
	promH *promhandler.Handler,
	wsH *ws.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidators()
	engine := gin.New()

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	r := &Router{
		engine:        engine,
		auth:          auth,
		appointmentH:  appointmentH,
		notificationH: notificationH,
		clinicalH:     clinicalH,
		healthH:       healthH,
		promH:         promH,
		wsH:           wsH,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		promH.Middleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	// Unversioned operational endpoints.
	r.engine.GET("/metrics", r.promH.Handler())
	r.healthH.RegisterRoutes(r.engine.Group(""))

	// Realtime handshake; auth happens inside the upgrade.
	r.engine.GET("/ws", r.wsH.Serve)

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.appointmentH.RegisterRoutes(protected, r.auth)
	r.notificationH.RegisterRoutes(protected)
	r.clinicalH.RegisterRoutes(protected, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
