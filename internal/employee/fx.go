package employee

import (
	"github.com/gajilabs/payrun/internal/employee/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("employee.repository",
	fx.Provide(repository.NewRepository),
)
