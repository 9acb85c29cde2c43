// Package unarcfx provides an fx module wiring a configured extractor
// factory into an application container.
package unarcfx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/codedread/unarc/pkg/unarc"
	_ "github.com/codedread/unarc/pkg/unarc/formats"
)

// Module provides an *unarc.Extractor with all bundled formats
// registered. Requires a *zap.Logger to be provided.
var Module = fx.Module("unarc",
	fx.Provide(newExtractor),
)

// Params holds dependencies for creating the extractor.
type Params struct {
	fx.In

	Logger *zap.Logger
}

func newExtractor(p Params) (*unarc.Extractor, error) {
	opts := unarc.DefaultOptions()
	opts.Logger = p.Logger.Named("unarc")
	return unarc.NewExtractor(opts)
}
