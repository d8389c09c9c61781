package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/gajilabs/payrun/internal/audit/domain"
	"github.com/gajilabs/payrun/internal/config"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	obslogger "github.com/gajilabs/payrun/internal/observability/logger"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log.Named("http"), obslogger.MiddlewareConfig{
		Debug: cfg.Environment != "production",
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, log *zap.Logger) *gin.Engine {
	return NewEngine(cfg, log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	genID        *snowflake.Node
	runSvc       rundomain.Service
	auditSvc     auditdomain.Service
	employeeRepo employeedomain.Repository
	rateRepo     statutorydomain.Repository
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	GenID        *snowflake.Node
	RunSvc       rundomain.Service
	AuditSvc     auditdomain.Service
	EmployeeRepo employeedomain.Repository
	RateRepo     statutorydomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		genID:        p.GenID,
		runSvc:       p.RunSvc,
		auditSvc:     p.AuditSvc,
		employeeRepo: p.EmployeeRepo,
		rateRepo:     p.RateRepo,
	}

	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.OrgContext())

	// -------- Payroll Runs --------
	admin.GET("/payroll-runs", s.ListPayrollRuns)
	admin.POST("/payroll-runs", s.CreatePayrollRun)
	admin.GET("/payroll-runs/:id", s.GetPayrollRunByID)
	admin.POST("/payroll-runs/:id/calculate", s.CalculatePayrollRun)
	admin.POST("/payroll-runs/:id/recalculate", s.RecalculatePayrollRun)
	admin.POST("/payroll-runs/:id/approve", s.ApprovePayrollRun)
	admin.POST("/payroll-runs/:id/finalize", s.FinalizePayrollRun)
	admin.POST("/payroll-runs/:id/mark-paid", s.MarkPayrollRunPaid)
	admin.POST("/payroll-runs/:id/cancel", s.CancelPayrollRun)
	admin.GET("/payroll-runs/:id/pay-slips", s.ListRunPaySlips)
	admin.GET("/payroll-runs/:id/deadline", s.GetRunDeadline)

	// -------- Pay Slips --------
	admin.GET("/pay-slips/:id/variance", s.GetPaySlipVariance)

	// -------- Employees --------
	admin.GET("/employees", s.ListEmployees)
	admin.POST("/employees", s.CreateEmployee)
	admin.GET("/employees/:id", s.GetEmployeeByID)
	admin.PATCH("/employees/:id", s.UpdateEmployee)

	// -------- Rate Tables --------
	admin.GET("/rate-tables", s.ListRateTables)
	admin.POST("/rate-tables", s.CreateRateTable)
	admin.GET("/rate-tables/:id", s.GetRateTableByID)

	admin.GET("/audit-logs", s.ListAuditLogs)
}
