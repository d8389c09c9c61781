package engine

import (
	"errors"
	"testing"
	"time"

	employeedomain "github.com/gajilabs/payrun/internal/employee/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *statutorydomain.RateTable {
	return &statutorydomain.RateTable{
		Record: statutorydomain.RateTableRecord{ID: 1, Version: 1},
		Bands: []statutorydomain.RateBand{
			{Category: statutorydomain.CategoryPension, EmployeeRateBps: 1100, EmployerRateBps: 1300},
			{Category: statutorydomain.CategorySocialSecurity, SalaryMax: 600000, EmployeeRateBps: 50, EmployerRateBps: 175},
			{Category: statutorydomain.CategorySocialSecurity, SalaryMin: 600001, EmployeeFixedAmount: 2950, EmployerFixedAmount: 10325},
			{Category: statutorydomain.CategoryEmploymentInsurance, EmployeeRateBps: 20, EmployerRateBps: 20},
			{Category: statutorydomain.CategoryIncomeTax, SalaryMax: 400000},
			{Category: statutorydomain.CategoryIncomeTax, SalaryMin: 400001, EmployeeRateBps: 300},
		},
		Exemptions: []statutorydomain.ExemptionRule{
			{Category: statutorydomain.CategoryPension, Reason: statutorydomain.ExemptionAge, MinAge: 60},
			{Category: statutorydomain.CategoryEmploymentInsurance, Reason: statutorydomain.ExemptionResidency, Residencies: "foreign"},
		},
	}
}

func dob(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCalculatePensionRateAndRounding(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary:  500000,
		DateOfBirth: dob(1990, 6, 1),
		Residency:   employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	pension := breakdown.Line(statutorydomain.CategoryPension)
	require.NotNil(t, pension)
	// 5000.00 at 11% employee / 13% employer.
	assert.Equal(t, int64(55000), pension.EmployeeAmount)
	assert.Equal(t, int64(65000), pension.EmployerAmount)
	assert.Equal(t, statutorydomain.RateSourceTable, pension.Source)
	assert.False(t, pension.Exempt())
}

func TestCalculateRoundsHalfUpOncePerAmount(t *testing.T) {
	// 3333.33 at 0.5% = 16.66665, rounds to 16.67 employee side.
	emp := &employeedomain.Employee{
		BaseSalary:  333333,
		DateOfBirth: dob(1995, 1, 15),
		Residency:   employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	socso := breakdown.Line(statutorydomain.CategorySocialSecurity)
	require.NotNil(t, socso)
	assert.Equal(t, int64(1667), socso.EmployeeAmount)
	// 1.75% of 3333.33 = 58.333275, rounds to 58.33.
	assert.Equal(t, int64(5833), socso.EmployerAmount)
}

func TestCalculateAgeExemptionZeroesBothSides(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary:  500000,
		DateOfBirth: dob(1960, 1, 1),
		Residency:   employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	pension := breakdown.Line(statutorydomain.CategoryPension)
	require.NotNil(t, pension)
	assert.Zero(t, pension.EmployeeAmount)
	assert.Zero(t, pension.EmployerAmount)
	assert.Equal(t, statutorydomain.ExemptionAge, pension.Exemption)
}

func TestCalculateResidencyExemption(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary:  400000,
		DateOfBirth: dob(1992, 8, 20),
		Residency:   employeedomain.ResidencyForeign,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	eis := breakdown.Line(statutorydomain.CategoryEmploymentInsurance)
	require.NotNil(t, eis)
	assert.Zero(t, eis.EmployeeAmount)
	assert.Equal(t, statutorydomain.ExemptionResidency, eis.Exemption)
}

func TestCalculateOverrideReplacesEmployeeSideOnly(t *testing.T) {
	override := int64(900)
	emp := &employeedomain.Employee{
		BaseSalary:         500000,
		DateOfBirth:        dob(1990, 6, 1),
		Residency:          employeedomain.ResidencyCitizen,
		OverridePensionBps: &override,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	pension := breakdown.Line(statutorydomain.CategoryPension)
	require.NotNil(t, pension)
	assert.Equal(t, int64(45000), pension.EmployeeAmount)
	// Employer contribution still follows the table band.
	assert.Equal(t, int64(65000), pension.EmployerAmount)
	assert.Equal(t, statutorydomain.RateSourceOverride, pension.Source)
}

func TestCalculateExemptionWinsOverOverride(t *testing.T) {
	override := int64(900)
	emp := &employeedomain.Employee{
		BaseSalary:         500000,
		DateOfBirth:        dob(1958, 2, 2),
		Residency:          employeedomain.ResidencyCitizen,
		OverridePensionBps: &override,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	pension := breakdown.Line(statutorydomain.CategoryPension)
	require.NotNil(t, pension)
	assert.Zero(t, pension.EmployeeAmount)
	assert.Equal(t, statutorydomain.ExemptionAge, pension.Exemption)
}

func TestCalculateOverrideStillRequiresBand(t *testing.T) {
	table := testTable()
	bands := table.Bands[:0]
	for _, band := range table.Bands {
		if band.Category != statutorydomain.CategoryPension {
			bands = append(bands, band)
		}
	}
	table.Bands = bands

	// An override tunes the employee rate, it cannot conjure a category the
	// table has no band for: the employer side would have nothing to go on.
	override := int64(900)
	emp := &employeedomain.Employee{
		BaseSalary:         500000,
		DateOfBirth:        dob(1990, 6, 1),
		Residency:          employeedomain.ResidencyCitizen,
		OverridePensionBps: &override,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	_, err := Calculate(emp, emp.GrossSalary(), table, asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, statutorydomain.ErrNoApplicableBand)

	var catErr *CategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, statutorydomain.CategoryPension, catErr.Category)
}

func TestCalculateMissingDateOfBirthFailsAgeConditionalCategory(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary: 500000,
		Residency:  employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	_, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, statutorydomain.ErrMissingDateOfBirth)

	var catErr *CategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, statutorydomain.CategoryPension, catErr.Category)
}

func TestCalculateFixedAmountBand(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary:  700000,
		DateOfBirth: dob(1988, 3, 10),
		Residency:   employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	socso := breakdown.Line(statutorydomain.CategorySocialSecurity)
	require.NotNil(t, socso)
	assert.Equal(t, int64(2950), socso.EmployeeAmount)
	assert.Equal(t, int64(10325), socso.EmployerAmount)
}

func TestCalculateIncomeTaxZeroBelowThreshold(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary:  300000,
		DateOfBirth: dob(1999, 12, 1),
		Residency:   employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	breakdown, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)

	tax := breakdown.Line(statutorydomain.CategoryIncomeTax)
	require.NotNil(t, tax)
	assert.Zero(t, tax.EmployeeAmount)
	assert.False(t, tax.Exempt())
}

func TestCalculateNegativeGross(t *testing.T) {
	emp := &employeedomain.Employee{BaseSalary: 100, DateOfBirth: dob(1990, 1, 1)}
	_, err := Calculate(emp, -1, testTable(), time.Now())
	assert.ErrorIs(t, err, statutorydomain.ErrInvalidGross)
}

func TestCalculateDeterministicCategoryOrder(t *testing.T) {
	emp := &employeedomain.Employee{
		BaseSalary:  500000,
		DateOfBirth: dob(1990, 6, 1),
		Residency:   employeedomain.ResidencyCitizen,
	}
	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	first, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)
	second, err := Calculate(emp, emp.GrossSalary(), testTable(), asOf)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	want := statutorydomain.Categories()
	require.Len(t, first.Lines, len(want))
	for i, line := range first.Lines {
		assert.Equal(t, want[i], line.Category)
	}
}
