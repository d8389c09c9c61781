package payslip

import (
	"github.com/gajilabs/payrun/internal/payslip/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payslip.builder",
	fx.Provide(service.NewBuilder),
)
