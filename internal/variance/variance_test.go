package variance

import (
	"testing"

	payslipdomain "github.com/gajilabs/payrun/internal/payslip/domain"
	statutorydomain "github.com/gajilabs/payrun/internal/statutory/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	NetRatioFloorBps:  5000,
	IncomeTaxGrossMin: 300000,
}

func cleanSlip() *payslipdomain.PaySlip {
	slip := &payslipdomain.PaySlip{
		GrossSalary:                 500000,
		PensionEmployee:             55000,
		PensionEmployer:             65000,
		SocialSecurityEmployee:      2500,
		SocialSecurityEmployer:      8750,
		EmploymentInsuranceEmployee: 1000,
		EmploymentInsuranceEmployer: 1000,
		IncomeTaxEmployee:           15000,
	}
	slip.TotalEmployeeDeductions = slip.PensionEmployee + slip.SocialSecurityEmployee + slip.EmploymentInsuranceEmployee + slip.IncomeTaxEmployee
	slip.NetSalary = slip.GrossSalary - slip.TotalEmployeeDeductions
	return slip
}

func TestDetectCleanSlipHasNoFindings(t *testing.T) {
	assert.Empty(t, Detect(cleanSlip(), testConfig))
}

func TestDetectZeroPensionWithoutExemption(t *testing.T) {
	slip := cleanSlip()
	slip.PensionEmployee = 0
	slip.NetSalary = slip.GrossSalary - slip.TotalEmployeeDeductions + 55000

	findings := Detect(slip, testConfig)
	require.Len(t, findings, 1)
	assert.Equal(t, "zero_pension", findings[0].Code)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Equal(t, statutorydomain.CategoryPension, findings[0].Category)
}

func TestDetectExemptZeroIsExplained(t *testing.T) {
	slip := cleanSlip()
	slip.PensionEmployee = 0
	slip.PensionEmployer = 0
	slip.PensionExemption = statutorydomain.ExemptionAge
	slip.NetSalary = slip.GrossSalary - slip.TotalEmployeeDeductions + 55000

	assert.Empty(t, Detect(slip, testConfig))
}

func TestDetectZeroGrossSlipIsQuiet(t *testing.T) {
	// Every deduction is necessarily zero at zero gross, so nothing there is
	// worth a reviewer's attention.
	slip := &payslipdomain.PaySlip{}
	assert.Empty(t, Detect(slip, testConfig))
}

func TestDetectZeroIncomeTaxAboveThreshold(t *testing.T) {
	slip := cleanSlip()
	slip.IncomeTaxEmployee = 0

	findings := Detect(slip, testConfig)
	require.Len(t, findings, 1)
	assert.Equal(t, "zero_income_tax", findings[0].Code)
	assert.Equal(t, SeverityInfo, findings[0].Severity)
}

func TestDetectZeroIncomeTaxBelowThresholdIsRoutine(t *testing.T) {
	slip := cleanSlip()
	slip.GrossSalary = 250000
	slip.IncomeTaxEmployee = 0
	slip.NetSalary = 200000

	assert.Empty(t, Detect(slip, testConfig))
}

func TestDetectLowNetRatio(t *testing.T) {
	slip := cleanSlip()
	slip.NetSalary = 200000 // 40% of gross

	findings := Detect(slip, testConfig)
	require.Len(t, findings, 1)
	assert.Equal(t, "low_net_ratio", findings[0].Code)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "40.00%")
}

func TestDetectAllKeysBySlip(t *testing.T) {
	clean := cleanSlip()
	clean.ID = 1
	flagged := cleanSlip()
	flagged.ID = 2
	flagged.PensionEmployee = 0

	results := DetectAll([]payslipdomain.PaySlip{*clean, *flagged}, testConfig)
	require.Len(t, results, 1)
	assert.Contains(t, results, int64(2))
}
