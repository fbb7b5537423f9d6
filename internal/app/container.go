package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/field-booking-backend/internal/api"
	"github.com/nekogravitycat/field-booking-backend/internal/auth"
	"github.com/nekogravitycat/field-booking-backend/internal/booking"
	"github.com/nekogravitycat/field-booking-backend/internal/field"
	"github.com/nekogravitycat/field-booking-backend/internal/photo"
	"github.com/nekogravitycat/field-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/field-booking-backend/internal/schedule"
	"github.com/nekogravitycat/field-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	DBPool       *pgxpool.Pool
	// Redis enables the slot cache. Nil disables caching.
	Redis        *redis.Client
	SlotCacheTTL time.Duration
	JWTSecret    string
	JWTTTL       time.Duration
	PasswordCost int

	Location      *time.Location
	CancelLockout time.Duration
	// Now overrides the clock of the booking services. Nil means time.Now.
	Now func() time.Time

	UploadDir      string
	MaxUploadBytes int64

	RateLimitRPS   float64
	RateLimitBurst int

	Logger zerolog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	UserService    user.Service
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.PasswordCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var slotCache booking.SlotCache = booking.NopSlotCache{}
	if cfg.Redis != nil {
		slotCache = booking.NewRedisSlotCache(cfg.Redis, cfg.SlotCacheTTL)
	}

	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init photo storage failed: %w", err)
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	bookingOpts := booking.Options{
		Location: cfg.Location,
		Lockout:  cfg.CancelLockout,
		Now:      cfg.Now,
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, cfg.Logger)

	// Field Module
	fieldRepo := field.NewPgxRepository(cfg.DBPool)
	fieldService := field.NewService(fieldRepo, slotCache, store, cfg.Logger)

	// Schedule Module
	scheduleRepo := schedule.NewPgxRepository(cfg.DBPool)
	scheduleService := schedule.NewService(scheduleRepo, fieldService, slotCache, cfg.Logger)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, fieldService, slotCache, bookingOpts, cfg.Logger)
	availabilityService := booking.NewAvailabilityService(fieldService, scheduleService, bookingRepo, slotCache, bookingOpts, cfg.Logger)

	// Photo Module
	photoRepo := photo.NewPgxRepository(cfg.DBPool)
	photoService := photo.NewService(photoRepo, fieldService, store, cfg.MaxUploadBytes, cfg.Logger)

	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Location:            bookingOpts.Location,
		Logger:              cfg.Logger,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		UserService:         userService,
		FieldService:        fieldService,
		ScheduleService:     scheduleService,
		BookingService:      bookingService,
		AvailabilityService: availabilityService,
		PhotoService:        photoService,
		JWTManager:          jwtManager,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		UserService:    userService,
		BookingService: bookingService,
	}, nil
}
