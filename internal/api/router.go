package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/field-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/field-booking-backend/internal/field"
	fieldHttp "github.com/nekogravitycat/field-booking-backend/internal/field/http"
	"github.com/nekogravitycat/field-booking-backend/internal/logging"
	"github.com/nekogravitycat/field-booking-backend/internal/metrics"
	"github.com/nekogravitycat/field-booking-backend/internal/photo"
	photoHttp "github.com/nekogravitycat/field-booking-backend/internal/photo/http"
	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
	scheduleHttp "github.com/nekogravitycat/field-booking-backend/internal/schedule/http"
	"github.com/nekogravitycat/field-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/field-booking-backend/internal/user/http"
)

// Config carries the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	Location     *time.Location
	Logger       zerolog.Logger

	RateLimitRPS   float64
	RateLimitBurst int

	UserService         user.Service
	FieldService        field.Service
	ScheduleService     schedule.Service
	BookingService      booking.Service
	AvailabilityService bookingHttp.SlotLister
	PhotoService        photo.Service
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (logging, recovery, CORS, metrics, rate limiting) and
// registers the routes of every module under /v1.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(logging.RequestLogger(cfg.Logger), gin.Recovery(), metrics.Middleware())

	// Production without configured origins serves same-origin clients only.
	if !cfg.IsProduction || len(cfg.ProdOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		if cfg.IsProduction {
			corsConfig.AllowOrigins = cfg.ProdOrigins
		} else {
			corsConfig.AllowAllOrigins = true
		}
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
		corsConfig.ExposeHeaders = []string{"X-Request-ID"}
		r.Use(cors.New(corsConfig))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", metrics.Handler())

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	adminMiddleware := auth.RequireAdmin()

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	fieldHandler := fieldHttp.NewHandler(cfg.FieldService)
	scheduleHandler := scheduleHttp.NewHandler(cfg.ScheduleService, cfg.Location)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.AvailabilityService, cfg.Location)
	photoHandler := photoHttp.NewHandler(cfg.PhotoService)

	v1 := r.Group("/v1", RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		fieldHttp.RegisterRoutes(v1, fieldHandler, authMiddleware, adminMiddleware)
		scheduleHttp.RegisterRoutes(v1, scheduleHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware)
		photoHttp.RegisterRoutes(v1, photoHandler, authMiddleware, adminMiddleware)
	}

	return r
}
