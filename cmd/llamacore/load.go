package main

import (
	"fmt"

	"github.com/ollamacore/llamacore/archive"
	"github.com/ollamacore/llamacore/config"
	"github.com/ollamacore/llamacore/kernel"
	"github.com/ollamacore/llamacore/model"
)

// runner is the common surface main needs regardless of which weight
// precision a model was loaded in; model.Model[T] is generic over
// kernel.Weight, so the CLI dispatches once on cfg.DType and works with
// this narrow interface from then on.
type runner interface {
	Generate(ids []uint32, maxNew int, params model.SampleParams) []uint32
}

// loadRunner opens the config and parameter archive named by rt and
// returns a runner of the precision the config declares.
func loadRunner(rt config.Runtime) (runner, error) {
	cfg, err := config.LoadModelConfig(rt.ModelPath)
	if err != nil {
		return nil, err
	}
	acc, err := archive.OpenSafetensors(rt.ParamsPath)
	if err != nil {
		return nil, fmt.Errorf("llamacore: open %s: %w", rt.ParamsPath, err)
	}

	switch cfg.DType {
	case model.DTypeF32:
		return loadTyped[float32](acc, cfg)
	case model.DTypeBF16:
		return loadTyped[kernel.BF16](acc, cfg)
	default:
		return nil, fmt.Errorf("llamacore: unsupported dtype %v", cfg.DType)
	}
}

func loadTyped[T kernel.Weight](acc archive.Accessor, cfg model.Config) (runner, error) {
	params, err := model.Load[T](acc, cfg)
	if err != nil {
		return nil, err
	}
	return model.New(cfg, params)
}

// profileParams resolves a named profile (story/chat) to its SampleParams,
// falling back to the chat profile.
func profileParams(name string) model.SampleParams {
	switch name {
	case model.StoryProfile.Name:
		return model.StoryProfile.Params
	case model.ChatProfile.Name:
		return model.ChatProfile.Params
	default:
		return model.ChatProfile.Params
	}
}
