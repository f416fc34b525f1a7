package usecase

import (
	"go.uber.org/fx"
)

// Module provides the operator usecases
var Module = fx.Module("usecase",
	fx.Provide(NewAccountUsecase),
)
