package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	"github.com/gajilabs/payrun/internal/orgcontext"
	"github.com/gin-gonic/gin"
)

type createEmployeeRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Department string `json:"department"`
	Position   string `json:"position"`

	BaseSalary int64 `json:"base_salary" binding:"required"`
	Allowance  int64 `json:"allowance"`

	DateOfBirth string `json:"date_of_birth"`
	Residency   string `json:"residency"`

	OverridePensionBps             *int64 `json:"override_pension_bps"`
	OverrideSocialSecurityBps      *int64 `json:"override_social_security_bps"`
	OverrideEmploymentInsuranceBps *int64 `json:"override_employment_insurance_bps"`
	OverrideIncomeTaxBps           *int64 `json:"override_income_tax_bps"`
}

type updateEmployeeRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`

	BaseSalary *int64 `json:"base_salary"`
	Allowance  *int64 `json:"allowance"`

	DateOfBirth *string `json:"date_of_birth"`
	Residency   *string `json:"residency"`
	Status      *string `json:"status"`

	OverridePensionBps             *int64 `json:"override_pension_bps"`
	OverrideSocialSecurityBps      *int64 `json:"override_social_security_bps"`
	OverrideEmploymentInsuranceBps *int64 `json:"override_employment_insurance_bps"`
	OverrideIncomeTaxBps           *int64 `json:"override_income_tax_bps"`
}

func (s *Server) ListEmployees(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	employees, err := s.employeeRepo.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": employees})
}

func (s *Server) CreateEmployee(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	employee := employeedomain.Employee{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Position:   strings.TrimSpace(req.Position),

		BaseSalary:   req.BaseSalary,
		Allowance:    req.Allowance,
		PayFrequency: employeedomain.PayFrequencyMonthly,

		Residency: employeedomain.ResidencyCitizen,
		Status:    employeedomain.EmployeeStatusActive,

		OverridePensionBps:             req.OverridePensionBps,
		OverrideSocialSecurityBps:      req.OverrideSocialSecurityBps,
		OverrideEmploymentInsuranceBps: req.OverrideEmploymentInsuranceBps,
		OverrideIncomeTaxBps:           req.OverrideIncomeTaxBps,
	}

	if req.Residency != "" {
		residency, err := parseResidency(req.Residency)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		employee.Residency = residency
	}

	if req.DateOfBirth != "" {
		dob, err := parseOptionalTime(req.DateOfBirth, false)
		if err != nil {
			AbortWithError(c, newValidationError("date_of_birth", "invalid_date_of_birth", "invalid date of birth"))
			return
		}
		employee.DateOfBirth = dob
	}

	if err := validateEmployee(&employee); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.employeeRepo.Create(c.Request.Context(), &employee); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": employee})
}

func (s *Server) GetEmployeeByID(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	employee, err := s.employeeRepo.FindByID(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": employee})
}

func (s *Server) UpdateEmployee(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	employee, err := s.employeeRepo.FindByID(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		employee.Department = strings.TrimSpace(*req.Department)
	}
	if req.Position != nil {
		employee.Position = strings.TrimSpace(*req.Position)
	}
	if req.BaseSalary != nil {
		employee.BaseSalary = *req.BaseSalary
	}
	if req.Allowance != nil {
		employee.Allowance = *req.Allowance
	}
	if req.Residency != nil {
		residency, err := parseResidency(*req.Residency)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		employee.Residency = residency
	}
	if req.Status != nil {
		status := employeedomain.EmployeeStatus(strings.TrimSpace(*req.Status))
		if status != employeedomain.EmployeeStatusActive && status != employeedomain.EmployeeStatusInactive {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		employee.Status = status
	}
	if req.DateOfBirth != nil {
		if strings.TrimSpace(*req.DateOfBirth) == "" {
			employee.DateOfBirth = nil
		} else {
			dob, err := parseOptionalTime(*req.DateOfBirth, false)
			if err != nil {
				AbortWithError(c, newValidationError("date_of_birth", "invalid_date_of_birth", "invalid date of birth"))
				return
			}
			employee.DateOfBirth = dob
		}
	}
	if req.OverridePensionBps != nil {
		employee.OverridePensionBps = req.OverridePensionBps
	}
	if req.OverrideSocialSecurityBps != nil {
		employee.OverrideSocialSecurityBps = req.OverrideSocialSecurityBps
	}
	if req.OverrideEmploymentInsuranceBps != nil {
		employee.OverrideEmploymentInsuranceBps = req.OverrideEmploymentInsuranceBps
	}
	if req.OverrideIncomeTaxBps != nil {
		employee.OverrideIncomeTaxBps = req.OverrideIncomeTaxBps
	}

	if err := validateEmployee(employee); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.employeeRepo.Update(c.Request.Context(), employee); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": employee})
}

func validateEmployee(employee *employeedomain.Employee) error {
	if employee.Code == "" {
		return employeedomain.ErrInvalidCode
	}
	if employee.Name == "" {
		return employeedomain.ErrInvalidName
	}
	if employee.BaseSalary <= 0 || employee.Allowance < 0 {
		return employeedomain.ErrInvalidSalary
	}
	return nil
}

func parseResidency(raw string) (employeedomain.Residency, error) {
	residency := employeedomain.Residency(strings.TrimSpace(raw))
	switch residency {
	case employeedomain.ResidencyCitizen,
		employeedomain.ResidencyPermanentResident,
		employeedomain.ResidencyForeign:
		return residency, nil
	}
	return "", employeedomain.ErrInvalidResidency
}
