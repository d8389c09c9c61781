package payrollrun

import (
	"github.com/gajilabs/payrun/internal/payrollrun/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payrollrun.service",
	fx.Provide(service.NewService),
)
