package usage

import (
	"github.com/bundlewatch/bundlewatch/internal/usage/repository"
	"github.com/bundlewatch/bundlewatch/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
