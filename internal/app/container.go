package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetcare/internal/api"
	"fleetcare/internal/appointment"
	"fleetcare/internal/auth"
	"fleetcare/internal/car"
	"fleetcare/internal/driver"
	"fleetcare/internal/event"
	"fleetcare/internal/slot"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	DBPool            *pgxpool.Pool
	JWTSecret         string
	JWTTTL            time.Duration
	BcryptCost        int
	AdminEmail        string
	AdminPasswordHash string
	AMQPURL           string
	WindowDays        int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router             *gin.Engine
	JWTManager         *auth.JWTManager
	AppointmentService appointment.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var publisher event.Publisher = event.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = event.NewAMQPPublisher(cfg.AMQPURL)
	}

	// Slot Module
	slotRepo := slot.NewPgxRepository(cfg.DBPool)
	slotService := slot.NewService(slotRepo)

	// Car Module
	carRepo := car.NewPgxRepository(cfg.DBPool)
	carService := car.NewService(carRepo)

	// Driver Module
	driverRepo := driver.NewPgxRepository(cfg.DBPool)
	driverService := driver.NewService(driverRepo)

	// Appointment Module
	apRepo := appointment.NewPgxRepository(cfg.DBPool)
	apService := appointment.NewService(apRepo, slotService, driverService, publisher)

	routerParams := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		WindowDays:         cfg.WindowDays,
		AdminEmail:         cfg.AdminEmail,
		AdminPasswordHash:  cfg.AdminPasswordHash,
		Hasher:             passwordHasher,
		JWTManager:         jwtManager,
		SlotService:        slotService,
		DriverService:      driverService,
		CarService:         carService,
		AppointmentService: apService,
	}

	router := api.NewRouter(routerParams)

	return &Container{
		Router:             router,
		JWTManager:         jwtManager,
		AppointmentService: apService,
	}
}
