package statutory

import (
	"github.com/gajilabs/payrun/internal/statutory/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("statutory.repository",
	fx.Provide(repository.NewRepository),
)
