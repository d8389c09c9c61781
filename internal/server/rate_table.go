package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gajilabs/payrun/internal/orgcontext"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"github.com/gin-gonic/gin"
)

type rateBandRequest struct {
	Category    string `json:"category" binding:"required"`
	SalaryMin   int64  `json:"salary_min"`
	SalaryMax   int64  `json:"salary_max"`
	AgeMin      int    `json:"age_min"`
	AgeMax      int    `json:"age_max"`
	Residencies string `json:"residencies"`

	EmployeeRateBps     int64 `json:"employee_rate_bps"`
	EmployerRateBps     int64 `json:"employer_rate_bps"`
	EmployeeFixedAmount int64 `json:"employee_fixed_amount"`
	EmployerFixedAmount int64 `json:"employer_fixed_amount"`
}

type exemptionRequest struct {
	Category    string `json:"category" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	MinAge      int    `json:"min_age"`
	Residencies string `json:"residencies"`
}

type createRateTableRequest struct {
	Version       int64              `json:"version" binding:"required"`
	EffectiveFrom string             `json:"effective_from" binding:"required"`
	Bands         []rateBandRequest  `json:"bands" binding:"required"`
	Exemptions    []exemptionRequest `json:"exemptions"`
}

func (s *Server) ListRateTables(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	records, err := s.rateRepo.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (s *Server) GetRateTableByID(c *gin.Context) {
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

	table, err := s.rateRepo.FindByID(c.Request.Context(), orgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": table})
}

// CreateRateTable registers a new table version. Versions are immutable;
// corrections ship as a new version with a later effective date.
func (s *Server) CreateRateTable(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createRateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	effectiveFrom, err := parseOptionalTime(req.EffectiveFrom, false)
	if err != nil || effectiveFrom == nil {
		AbortWithError(c, newValidationError("effective_from", "invalid_effective_from", "invalid effective from"))
		return
	}

	table := statutorydomain.RateTable{
		Record: statutorydomain.RateTableRecord{
			ID:            s.genID.Generate(),
			OrgID:         orgID,
			Version:       req.Version,
			EffectiveFrom: *effectiveFrom,
		},
	}

	for _, band := range req.Bands {
		category, err := parseCategory(band.Category)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		table.Bands = append(table.Bands, statutorydomain.RateBand{
			ID:          s.genID.Generate(),
			Category:    category,
			SalaryMin:   band.SalaryMin,
			SalaryMax:   band.SalaryMax,
			AgeMin:      band.AgeMin,
			AgeMax:      band.AgeMax,
			Residencies: strings.TrimSpace(band.Residencies),

			EmployeeRateBps:     band.EmployeeRateBps,
			EmployerRateBps:     band.EmployerRateBps,
			EmployeeFixedAmount: band.EmployeeFixedAmount,
			EmployerFixedAmount: band.EmployerFixedAmount,
		})
	}

	for _, rule := range req.Exemptions {
		category, err := parseCategory(rule.Category)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		table.Exemptions = append(table.Exemptions, statutorydomain.ExemptionRule{
			ID:          s.genID.Generate(),
			Category:    category,
			Reason:      statutorydomain.ExemptionReason(strings.TrimSpace(rule.Reason)),
			MinAge:      rule.MinAge,
			Residencies: strings.TrimSpace(rule.Residencies),
		})
	}

	if err := s.rateRepo.Create(c.Request.Context(), &table); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": table})
}

func parseCategory(raw string) (statutorydomain.Category, error) {
	category := statutorydomain.Category(strings.TrimSpace(raw))
	for _, known := range statutorydomain.Categories() {
		if category == known {
			return category, nil
		}
	}
	return "", newValidationError("category", "invalid_category", "invalid category")
}
