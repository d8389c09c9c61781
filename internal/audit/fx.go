package audit

import (
	"github.com/gajilabs/payrun/internal/audit/repository"
	"github.com/gajilabs/payrun/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
