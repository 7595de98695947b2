package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	notificationConsumer "campus-rides/internal/notification/consumer"
	notificationHandler "campus-rides/internal/notification/handler"
	notificationRepository "campus-rides/internal/notification/repository"
	notificationService "campus-rides/internal/notification/service"
	ratingHandler "campus-rides/internal/rating/handler"
	ratingRepository "campus-rides/internal/rating/repository"
	ratingService "campus-rides/internal/rating/service"
	rideHandler "campus-rides/internal/ride/handler"
	"campus-rides/internal/ride/messaging"
	rideRepository "campus-rides/internal/ride/repository"
	rideService "campus-rides/internal/ride/service"
	"campus-rides/internal/scheduler"
	userHandler "campus-rides/internal/user/handler"
	userRepository "campus-rides/internal/user/repository"
	"campus-rides/pkg/auth"
	"campus-rides/pkg/config"
	"campus-rides/pkg/db"
	"campus-rides/pkg/logger"
	"campus-rides/pkg/rabbitmq"
	"campus-rides/pkg/websocket"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.NewLogger("ride-service")
	log.Info("service_starting", fmt.Sprintf("Campus Rides starting on port %d", cfg.HTTP.Port))

	// Connect to database
	dbConn, err := db.NewConnection(cfg, log)
	if err != nil {
		log.Error("db_connect_failed", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Connect to RabbitMQ
	rabbit, err := rabbitmq.NewConnection(cfg, log)
	if err != nil {
		log.Error("rabbitmq_connect_failed", err)
		os.Exit(1)
	}
	defer rabbit.Close()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)

	// Initialize WebSocket manager
	wsManager := websocket.NewManager(log)

	// Repositories
	rideRepo := rideRepository.NewPostgresRideRepository(dbConn)
	userRepo := userRepository.NewPostgresUserRepository(dbConn)
	ratingRepo := ratingRepository.NewPostgresRatingRepository(dbConn)
	notifRepo := notificationRepository.NewPostgresNotificationRepository(dbConn)
	prefRepo := notificationRepository.NewPostgresPreferenceRepository(dbConn)

	// Event publishing
	publisher := messaging.NewRabbitEventPublisher(rabbit, log)

	// Ride use cases
	createRide := rideService.NewCreateRideUseCase(rideRepo, log)
	bookRide := rideService.NewBookRideUseCase(rideRepo, publisher, log)
	cancelBooking := rideService.NewCancelBookingUseCase(rideRepo, publisher, log)
	removePassenger := rideService.NewRemovePassengerUseCase(rideRepo, publisher, log)
	updateStatus := rideService.NewUpdateStatusUseCase(rideRepo, publisher, log)
	searchRides := rideService.NewSearchRidesUseCase(rideRepo, log)
	getRide := rideService.NewGetRideUseCase(rideRepo)
	listPassengers := rideService.NewListPassengersUseCase(rideRepo)
	listUserRides := rideService.NewListUserRidesUseCase(rideRepo, log)

	// Rating use cases
	submitRating := ratingService.NewSubmitRatingUseCase(ratingRepo, rideRepo, userRepo, log)
	listRatings := ratingService.NewListRatingsUseCase(ratingRepo)

	// Notification fan-out and its consumer
	dispatcher := notificationService.NewDispatcher(notifRepo, prefRepo, wsManager, log)
	eventConsumer := notificationConsumer.New(rabbit, dispatcher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eventConsumer.StartConsuming(ctx); err != nil {
		log.Error("consumer_start_failed", err)
		os.Exit(1)
	}

	// Background maintenance jobs
	jobs := scheduler.NewScheduler(rideRepo, updateStatus, publisher, cfg, log)
	jobs.Start(ctx)

	// Handlers
	rides := rideHandler.NewRideHandler(
		createRide, bookRide, cancelBooking, removePassenger, updateStatus,
		searchRides, getRide, listPassengers, listUserRides, log,
	)
	ratings := ratingHandler.NewRatingHandler(submitRating, listRatings, log)
	notifications := notificationHandler.NewNotificationHandler(dispatcher, log)
	users := userHandler.NewUserHandler(userRepo, jwtManager, log)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public endpoints
	mux.HandleFunc("POST /auth/register", users.Register)
	mux.HandleFunc("POST /auth/login", users.Login)

	protected := func(h http.HandlerFunc) http.Handler {
		return jwtManager.AuthMiddleware(h)
	}

	// Accounts
	mux.Handle("GET /users/me", protected(users.Me))
	mux.Handle("GET /users/{user_id}", protected(users.GetProfile))

	// Rides
	mux.Handle("POST /rides", protected(rides.CreateRide))
	mux.Handle("GET /rides", protected(rides.SearchRides))
	mux.Handle("GET /rides/{ride_id}", protected(rides.GetRide))
	mux.Handle("PATCH /rides/{ride_id}/status", protected(rides.UpdateStatus))
	mux.Handle("POST /rides/{ride_id}/bookings", protected(rides.BookRide))
	mux.Handle("DELETE /rides/{ride_id}/bookings", protected(rides.CancelBooking))
	mux.Handle("GET /rides/{ride_id}/passengers", protected(rides.ListPassengers))
	mux.Handle("DELETE /rides/{ride_id}/passengers/{passenger_id}", protected(rides.RemovePassenger))
	mux.Handle("GET /users/me/rides", protected(rides.ListMyRides))

	// Ratings
	mux.Handle("POST /ratings", protected(ratings.SubmitRating))
	mux.Handle("GET /rides/{ride_id}/ratings", protected(ratings.RideRatings))
	mux.Handle("GET /rides/{ride_id}/ratings/check", protected(ratings.HasRated))
	mux.Handle("GET /users/{user_id}/ratings", protected(ratings.UserRatings))
	mux.Handle("GET /users/me/ratings/given", protected(ratings.MyGivenRatings))

	// Notifications
	mux.Handle("GET /notifications", protected(notifications.List))
	mux.Handle("GET /notifications/unread-count", protected(notifications.UnreadCount))
	mux.Handle("POST /notifications/{notification_id}/read", protected(notifications.MarkRead))
	mux.Handle("POST /notifications/read-all", protected(notifications.MarkAllRead))
	mux.Handle("GET /notifications/preferences", protected(notifications.GetPreferences))
	mux.Handle("PUT /notifications/preferences", protected(notifications.UpdatePreferences))

	// WebSocket endpoint for live notification pushes
	wsHandler := websocket.NewHandler(log, jwtManager, func(conn *websocket.Connection) {
		userID := conn.Claims.UserID
		wsManager.AddConnection(userID, conn)

		log.WithFields(logger.LogFields{
			"user_id": userID,
		}).Info("websocket_connected", "Client WebSocket connected")

		conn.ReadPump(
			func(msgType int, p []byte) {
				// Clients only receive; inbound frames are ignored.
			},
			func() {
				wsManager.RemoveConnection(userID)
				log.WithFields(logger.LogFields{
					"user_id": userID,
				}).Info("websocket_disconnected", "Client WebSocket disconnected")
			},
		)
	})
	mux.Handle("GET /ws", wsHandler)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: mux,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", err)
			os.Exit(1)
		}
	}()

	log.Info("server_running", fmt.Sprintf("Campus Rides running on :%d", cfg.HTTP.Port))

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server_shutdown", "Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	log.Info("server_stopped", "Server stopped gracefully")
}
