package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	rundomain "github.com/gajilabs/payrun/internal/payrollrun/domain"
	"github.com/gin-gonic/gin"
)

type listPayrollRunsQuery struct {
	Status      string `form:"status"`
	PeriodYear  string `form:"period_year"`
	PeriodMonth string `form:"period_month"`
}

func (s *Server) CreatePayrollRun(c *gin.Context) {
	var req rundomain.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	run, err := s.runSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": run})
}

func (s *Server) ListPayrollRuns(c *gin.Context) {
	var query listPayrollRunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := rundomain.ListRunsRequest{}
	if status := strings.TrimSpace(query.Status); status != "" {
		typed := rundomain.Status(status)
		req.Status = &typed
	}

	year, err := parseOptionalInt(query.PeriodYear)
	if err != nil {
		AbortWithError(c, newValidationError("period_year", "invalid_period_year", "invalid period year"))
		return
	}
	req.PeriodYear = year

	month, err := parseOptionalInt(query.PeriodMonth)
	if err != nil {
		AbortWithError(c, newValidationError("period_month", "invalid_period_month", "invalid period month"))
		return
	}
	req.PeriodMonth = month

	runs, err := s.runSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (s *Server) GetPayrollRunByID(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	run, err := s.runSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) CalculatePayrollRun(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	result, err := s.runSvc.Calculate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) RecalculatePayrollRun(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	result, err := s.runSvc.Recalculate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ApprovePayrollRun(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	run, err := s.runSvc.Approve(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) FinalizePayrollRun(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	run, err := s.runSvc.Finalize(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) MarkPayrollRunPaid(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	var req rundomain.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	run, err := s.runSvc.MarkPaid(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) CancelPayrollRun(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	run, err := s.runSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func (s *Server) ListRunPaySlips(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	slips, err := s.runSvc.PaySlips(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": slips})
}

func (s *Server) GetRunDeadline(c *gin.Context) {
	id, ok := runIDParam(c)
	if !ok {
		return
	}

	status, err := s.runSvc.Deadline(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) GetPaySlipVariance(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	result, err := s.runSvc.Variance(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func runIDParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}
