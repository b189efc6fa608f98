package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/notifications"
	"hrms/internal/platform/config"
	"hrms/internal/platform/db"
	"hrms/internal/platform/email"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/metrics"
	attendancehandler "hrms/internal/transport/http/handlers/attendance"
	audithandler "hrms/internal/transport/http/handlers/audit"
	authhandler "hrms/internal/transport/http/handlers/auth"
	corehandler "hrms/internal/transport/http/handlers/core"
	cronhandler "hrms/internal/transport/http/handlers/cron"
	healthhandler "hrms/internal/transport/http/handlers/health"
	leavehandler "hrms/internal/transport/http/handlers/leave"
	"hrms/internal/transport/http/middleware"
)

type App struct {
	Config     config.Config
	DB         *db.Pool
	Router     http.Handler
	Jobs       *jobs.Service
	Metrics    *metrics.Collector
	Reconciler *attendance.Reconciler
	Logger     *slog.Logger
}

type stores struct {
	employees  core.StoreAPI
	users      auth.StoreAPI
	leave      leave.StoreAPI
	attendance attendance.StoreAPI
	audit      audit.StoreAPI
	recorder   jobs.RunRecorder
}

// New connects the configured stores, applies migrations and seed data,
// and builds the HTTP router. Call Start to run the scheduler and Close to
// release the pool.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	policy, err := attendancePolicy(cfg)
	if err != nil {
		return nil, err
	}
	leavePolicy, err := leave.ParsePolicy(cfg.LeavePolicy)
	if err != nil {
		return nil, fmt.Errorf("LEAVE_POLICY: %w", err)
	}

	app := &App{Config: cfg, Logger: logger}
	st, err := app.openStores(ctx, loc)
	if err != nil {
		return nil, err
	}

	users := auth.NewService(st.users, cfg.JWTSecret)
	if err := db.Seed(ctx, cfg, users); err != nil {
		app.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}

	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}
	notify := notifications.New(email.New(cfg), st.employees, cfg.EmailFrom)
	ledger := leave.NewLedger(st.leave, st.employees, leavePolicy)
	attendanceSvc := attendance.NewService(st.attendance, st.employees, policy)
	app.Reconciler = attendance.NewReconciler(st.employees, st.attendance, notify, policy, logger)
	app.Jobs = jobs.New(st.recorder)

	cron := cronhandler.NewHandler(app.Reconciler, app.Jobs, app.Metrics, cfg.CronSecret, loc)
	app.Jobs.Schedule(jobs.JobAttendanceReconcile, cfg.ReconcileInterval, func(now time.Time) bool {
		return policy.Window(now.In(loc)) != attendance.ModeNone
	}, cron.Run())

	var pinger healthhandler.Pinger
	if app.DB != nil {
		pinger = app.DB
	}

	auditLog := audit.New(st.audit)
	leaveHandler := leavehandler.NewHandler(ledger, st.employees, notify)
	leaveHandler.Now = func() time.Time { return time.Now().In(loc) }
	leaveHandler.Audit = auditLog
	attendanceHandler := attendancehandler.NewHandler(attendanceSvc, st.employees, loc)
	attendanceHandler.Audit = auditLog
	employeesHandler := corehandler.NewHandler(core.NewService(st.employees), users)
	employeesHandler.Audit = auditLog

	app.Router = app.routes(routeDeps{
		auth:       authhandler.NewHandler(users),
		employees:  employeesHandler,
		leave:      leaveHandler,
		attendance: attendanceHandler,
		cron:       cron,
		health:     healthhandler.NewHandler(pinger, app.Metrics),
		audit:      audithandler.NewHandler(auditLog),
	})
	return app, nil
}

func (a *App) openStores(ctx context.Context, loc *time.Location) (stores, error) {
	if a.Config.StoreDriver == config.StoreDriverMemory {
		a.Logger.Warn("using in-memory stores; data is lost on restart")
		return stores{
			employees:  core.NewMemory(),
			users:      auth.NewMemory(),
			leave:      leave.NewMemory(),
			attendance: attendance.NewMemory(),
			audit:      audit.NewMemory(),
			recorder:   jobs.NoopRecorder{},
		}, nil
	}

	pool, err := db.Connect(ctx, a.Config)
	if err != nil {
		return stores{}, fmt.Errorf("db connect: %w", err)
	}
	a.DB = pool
	if a.Config.RunMigrations {
		if err := db.Migrate(ctx, pool, a.Config.MigrationsDir); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrations: %w", err)
		}
	}
	return stores{
		employees:  core.NewStore(pool),
		users:      auth.NewStore(pool),
		leave:      leave.NewStore(pool),
		attendance: attendance.NewStore(pool, loc),
		audit:      audit.NewStore(pool),
		recorder:   jobs.PGRecorder{DB: pool},
	}, nil
}

type routeDeps struct {
	auth       *authhandler.Handler
	employees  *corehandler.Handler
	leave      *leavehandler.Handler
	attendance *attendancehandler.Handler
	cron       *cronhandler.Handler
	health     *healthhandler.Handler
	audit      *audithandler.Handler
}

func (a *App) routes(deps routeDeps) http.Handler {
	cfg := a.Config

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", cronhandler.SecretHeader},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(middleware.Logger(a.Logger, a.Metrics))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", deps.health.HandleHealth)
	router.Get("/readyz", deps.health.HandleReady)
	router.With(middleware.RequirePermission(auth.PermMetricsRead)).Get("/metrics", deps.health.HandleMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SensitiveMutationRateLimit(40, time.Minute))
		r.Post("/auth/login", deps.auth.HandleLogin)
		r.Post("/cron/attendance", deps.cron.HandleAttendance)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", deps.auth.HandleMe)
			deps.employees.RegisterRoutes(r)
			deps.leave.RegisterRoutes(r)
			deps.attendance.RegisterRoutes(r)
			deps.audit.RegisterRoutes(r)
		})
	})
	return router
}

// Start runs the background job worker and the reconcile schedule until ctx
// is cancelled.
func (a *App) Start(ctx context.Context) {
	a.Jobs.Start(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func attendancePolicy(cfg config.Config) (attendance.Policy, error) {
	policy := attendance.DefaultPolicy()
	hour, minute, err := cfg.LateAfterClock()
	if err != nil {
		return policy, err
	}
	policy.LateHour, policy.LateMinute = hour, minute
	if cfg.OvertimeThreshold > 0 {
		policy.OvertimeThreshold = cfg.OvertimeThreshold
	}
	if cfg.HalfDayThreshold > 0 {
		policy.HalfDayThreshold = cfg.HalfDayThreshold
	}
	return policy, nil
}
