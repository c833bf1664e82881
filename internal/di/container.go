package di

import (
	"github.com/ayush-ak-725/ticket-booking-service/internal/handler"
	"github.com/ayush-ak-725/ticket-booking-service/internal/repository"
	"github.com/ayush-ak-725/ticket-booking-service/internal/service"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
)

// Container holds all dependencies for the box office service
type Container struct {
	// Infrastructure. Redis is nil when the process runs on the
	// in-memory capacity store.
	Redis *redis.Client

	// Repositories
	EventRepo    repository.EventRepository
	HoldRepo     repository.HoldRepository
	BookingRepo  repository.BookingRepository
	CapacityRepo repository.CapacityRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	EventService   service.EventService
	HoldService    service.HoldService
	BookingService service.BookingService
	StatsService   service.StatsService

	// Handlers
	HealthHandler  *handler.HealthHandler
	EventHandler   *handler.EventHandler
	HoldHandler    *handler.HoldHandler
	BookingHandler *handler.BookingHandler
	StatsHandler   *handler.StatsHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Redis          *redis.Client
	EventRepo      repository.EventRepository
	HoldRepo       repository.HoldRepository
	BookingRepo    repository.BookingRepository
	CapacityRepo   repository.CapacityRepository
	EventPublisher service.EventPublisher
	HoldConfig     *service.HoldServiceConfig
	ServiceName    string
	CapacityStore  string
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		Redis:          cfg.Redis,
		EventRepo:      cfg.EventRepo,
		HoldRepo:       cfg.HoldRepo,
		BookingRepo:    cfg.BookingRepo,
		CapacityRepo:   cfg.CapacityRepo,
		EventPublisher: cfg.EventPublisher,
	}

	// Initialize services
	c.EventService = service.NewEventService(c.EventRepo, c.CapacityRepo)
	c.HoldService = service.NewHoldService(
		c.HoldRepo,
		c.EventRepo,
		c.CapacityRepo,
		c.EventPublisher,
		cfg.HoldConfig,
	)
	c.BookingService = service.NewBookingService(
		c.BookingRepo,
		c.HoldRepo,
		c.CapacityRepo,
		c.EventPublisher,
	)
	c.StatsService = service.NewStatsService(
		c.EventRepo,
		c.HoldRepo,
		c.BookingRepo,
		c.CapacityRepo,
	)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.Redis, cfg.ServiceName, cfg.CapacityStore)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.HoldHandler = handler.NewHoldHandler(c.HoldService)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.StatsHandler = handler.NewStatsHandler(c.StatsService)

	return c
}
