package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fleetcare/internal/appointment"
	apHttp "fleetcare/internal/appointment/http"
	"fleetcare/internal/auth"
	"fleetcare/internal/car"
	carHttp "fleetcare/internal/car/http"
	"fleetcare/internal/driver"
	driverHttp "fleetcare/internal/driver/http"
	"fleetcare/internal/slot"
	slotHttp "fleetcare/internal/slot/http"
)

// Config holds everything needed to assemble the HTTP router.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	WindowDays   int

	AdminEmail        string
	AdminPasswordHash string
	Hasher            auth.PasswordHasher
	JWTManager        *auth.JWTManager

	SlotService        slot.Service
	DriverService      driver.Service
	CarService         car.Service
	AppointmentService appointment.Service
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and
// registering routes for the modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:8081"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	adminMiddleware := auth.AdminRequired(cfg.JWTManager)

	authHandler := NewAuthHandler(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.Hasher, cfg.JWTManager)
	slotHandler := slotHttp.NewHandler(cfg.SlotService, cfg.WindowDays)
	driverHandler := driverHttp.NewHandler(cfg.DriverService)
	carHandler := carHttp.NewHandler(cfg.CarService)
	apHandler := apHttp.NewHandler(cfg.AppointmentService)

	// Liveness probe: a minimal-window free-dates query proves both the
	// process and the database are reachable.
	r.GET("/healthz", func(c *gin.Context) {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		if _, err := cfg.SlotService.FreeDates(c.Request.Context(), today, 1); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authHandler.Login)
		slotHttp.RegisterRoutes(v1, slotHandler, adminMiddleware)
		driverHttp.RegisterRoutes(v1, driverHandler, adminMiddleware)
		carHttp.RegisterRoutes(v1, carHandler, adminMiddleware)
		apHttp.RegisterRoutes(v1, apHandler, adminMiddleware)
	}

	return r
}
