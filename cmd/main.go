package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelReservationHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/cancel_reservation"
	confirmReservationHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/confirm_reservation"
	createReservationHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/create_reservation"
	getAvailabilityHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_availability"
	getClientReservationsHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_client_reservations"
	getProviderReservationsHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_provider_reservations"
	getProviderScheduleHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_provider_schedule"
	getProviderStaffHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_provider_staff"
	getReservationHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/get_reservation"
	recordCompletionHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/record_completion"
	updateProviderScheduleHandler "github.com/m04kA/SMC-ScheduleService/internal/api/handlers/update_provider_schedule"
	"github.com/m04kA/SMC-ScheduleService/internal/api/middleware"
	"github.com/m04kA/SMC-ScheduleService/internal/config"
	"github.com/m04kA/SMC-ScheduleService/internal/infra/cache"
	paymentRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/payment"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	reservationRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/reservation"
	scheduleRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/schedule"
	staffRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/staff"
	notifierClient "github.com/m04kA/SMC-ScheduleService/internal/integrations/notifier"
	paymentGatewayClient "github.com/m04kA/SMC-ScheduleService/internal/integrations/paymentgateway"
	reservationsService "github.com/m04kA/SMC-ScheduleService/internal/service/reservations"
	schedulesService "github.com/m04kA/SMC-ScheduleService/internal/service/schedules"
	schedulingService "github.com/m04kA/SMC-ScheduleService/internal/service/scheduling"
	cancelReservationUC "github.com/m04kA/SMC-ScheduleService/internal/usecase/cancel_reservation"
	createReservationUC "github.com/m04kA/SMC-ScheduleService/internal/usecase/create_reservation"
	getAvailabilityUC "github.com/m04kA/SMC-ScheduleService/internal/usecase/get_availability"
	recordCompletionUC "github.com/m04kA/SMC-ScheduleService/internal/usecase/record_completion"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/logger"
	"github.com/m04kA/SMC-ScheduleService/pkg/metrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-ScheduleService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ScheduleService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем Redis-кэш расписаний (если включен)
	// Кэш обслуживает только чтение; запись всегда ходит в БД
	var schedCache *cache.Client
	if cfg.Cache.Enabled {
		schedCache = cache.New(
			cfg.Cache.Addr,
			cfg.Cache.Password,
			cfg.Cache.DB,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			log,
		)
		defer schedCache.Close()

		if err := schedCache.Ping(context.Background()); err != nil {
			log.Fatal("Failed to ping cache: %v", err)
		}
		log.Info("Schedule cache enabled (addr=%s, ttl=%ds)", cfg.Cache.Addr, cfg.Cache.TTLSeconds)
	}

	// Типизированный nil в интерфейсе не равен nil - прокидываем кэш
	// в сервисы только когда он реально создан
	var schedulingCache schedulingService.ScheduleCache
	var schedulesCache schedulesService.ScheduleCache
	if schedCache != nil {
		schedulingCache = schedCache
		schedulesCache = schedCache
	}

	// Инициализируем интеграционных клиентов
	gatewayClient := paymentGatewayClient.NewClient(
		cfg.Gateway.URL,
		cfg.Gateway.APIKey,
		time.Duration(cfg.Gateway.Timeout)*time.Second,
		log,
	)
	notifyClient := notifierClient.NewClient(
		cfg.Notifier.URL,
		time.Duration(cfg.Notifier.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (PaymentGateway=%s timeout=%ds, Notifier=%s timeout=%ds)",
		cfg.Gateway.URL, cfg.Gateway.Timeout, cfg.Notifier.URL, cfg.Notifier.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		providerRepository    *providerRepo.Repository
		scheduleRepository    *scheduleRepo.Repository
		staffRepository       *staffRepo.Repository
		reservationRepository *reservationRepo.Repository
		paymentRepository     *paymentRepo.Repository
	)

	// Интерфейс для transaction manager (используется в сервисах и usecases)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		providerRepository = providerRepo.NewRepository(wrappedDB)
		scheduleRepository = scheduleRepo.NewRepository(wrappedDB)
		staffRepository = staffRepo.NewRepository(wrappedDB)
		reservationRepository = reservationRepo.NewRepository(wrappedDB)
		paymentRepository = paymentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		providerRepository = providerRepo.NewRepository(db)
		scheduleRepository = scheduleRepo.NewRepository(db)
		staffRepository = staffRepo.NewRepository(db)
		reservationRepository = reservationRepo.NewRepository(db)
		paymentRepository = paymentRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Политики планирования
	schedCfg := cfg.Scheduling
	buffer := time.Duration(schedCfg.BufferMinutes) * time.Minute
	minLeadTime := time.Duration(schedCfg.MinLeadTimeMinutes) * time.Minute
	overtimeTolerance := time.Duration(schedCfg.OvertimeToleranceMinutes) * time.Minute

	// Инициализируем сервисы
	schedulingSvc := schedulingService.NewService(
		scheduleRepository,
		staffRepository,
		reservationRepository,
		schedulingCache,
		log,
		schedulingService.Policy{
			Buffer:          buffer,
			SlotStep:        time.Duration(schedCfg.SlotStepMinutes) * time.Minute,
			DefaultDuration: time.Duration(schedCfg.DefaultDurationMinutes) * time.Minute,
		},
	)
	schedulesSvc := schedulesService.NewService(
		scheduleRepository,
		providerRepository,
		staffRepository,
		schedulesCache,
		txMgr,
		log,
	)
	reservationsSvc := reservationsService.NewService(
		reservationRepository,
		providerRepository,
		paymentRepository,
		gatewayClient,
		txMgr,
		log,
	)

	// Инициализируем use cases
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		providerRepository,
		schedulingSvc,
		minLeadTime,
		log,
	)
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		providerRepository,
		staffRepository,
		scheduleRepository,
		txMgr,
		buffer,
		minLeadTime,
		log,
	)
	recordCompletionUseCase := recordCompletionUC.NewUseCase(
		reservationRepository,
		providerRepository,
		schedulingSvc,
		notifyClient,
		txMgr,
		buffer,
		overtimeTolerance,
		schedCfg.RescheduleHorizonDays,
		log,
	)
	cancelReservationUseCase := cancelReservationUC.NewUseCase(
		reservationRepository,
		providerRepository,
		paymentRepository,
		gatewayClient,
		notifyClient,
		txMgr,
		log,
	)

	// Инициализируем handlers
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationsSvc, log)
	confirmReservation := confirmReservationHandler.NewHandler(reservationsSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(cancelReservationUseCase, log)
	recordCompletion := recordCompletionHandler.NewHandler(recordCompletionUseCase, log)
	getClientReservations := getClientReservationsHandler.NewHandler(reservationsSvc, log)
	getProviderReservations := getProviderReservationsHandler.NewHandler(reservationsSvc, log)
	getProviderSchedule := getProviderScheduleHandler.NewHandler(schedulesSvc, log)
	updateProviderSchedule := updateProviderScheduleHandler.NewHandler(schedulesSvc, log)
	getProviderStaff := getProviderStaffHandler.NewHandler(schedulesSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступность провайдера на дату
	api.HandleFunc("/providers/{providerId}/availability",
		getAvailability.Handle).Methods(http.MethodGet)

	// Недельное расписание провайдера
	api.HandleFunc("/providers/{providerId}/schedule",
		getProviderSchedule.Handle).Methods(http.MethodGet)

	// Список сотрудников провайдера
	api.HandleFunc("/providers/{providerId}/staff",
		getProviderStaff.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)

	// Подтверждение оплаты бронирования
	protected.HandleFunc("/reservations/{reservationId}/confirm", confirmReservation.Handle).Methods(http.MethodPatch)

	// Отмена бронирования
	protected.HandleFunc("/reservations/{reservationId}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)

	// Фиксация фактического завершения (запускает каскад переносов)
	protected.HandleFunc("/reservations/{reservationId}/complete", recordCompletion.Handle).Methods(http.MethodPatch)

	// История бронирований клиента
	protected.HandleFunc("/clients/{clientId}/reservations", getClientReservations.Handle).Methods(http.MethodGet)

	// --- Управление провайдером (для менеджеров) ---
	// Список бронирований провайдера
	protected.HandleFunc("/providers/{providerId}/reservations", getProviderReservations.Handle).Methods(http.MethodGet)

	// Обновление недельного расписания
	protected.HandleFunc("/providers/{providerId}/schedule", updateProviderSchedule.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
