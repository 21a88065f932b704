// Package config loads model.Config from a Llama-style config.json and
// layers CLI flags and LLAMACORE_* environment variables on top, following
// CWBudde-go-pocket-tts's internal/config + cmd/pockettts/root.go pattern
// of cobra for subcommands and viper for flag/env/file precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ollamacore/llamacore/model"
)

// Runtime is the resolved set of knobs the CLI and HTTP surface share:
// where the model lives on disk and how the server should bind.
type Runtime struct {
	ModelPath      string
	ParamsPath     string
	ListenAddr     string
	MaxConcurrent  int64
	DefaultProfile string
}

// RegisterFlags adds the runtime's flags to fs, for cobra commands to bind
// via viper.BindPFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("model", "", "path to config.json describing the model")
	fs.String("params", "", "path to the safetensors parameter archive")
	fs.String("listen", ":11434", "HTTP listen address for the serve command")
	fs.Int64("max-concurrent", 4, "maximum concurrent generations over one shared model")
	fs.String("profile", "chat", "default sampling profile: story or chat")
}

// Load resolves a Runtime from viper, which by this point has already
// merged flags, LLAMACORE_* environment variables and any config file.
func Load(v *viper.Viper) Runtime {
	return Runtime{
		ModelPath:      v.GetString("model"),
		ParamsPath:     v.GetString("params"),
		ListenAddr:     v.GetString("listen"),
		MaxConcurrent:  v.GetInt64("max-concurrent"),
		DefaultProfile: v.GetString("profile"),
	}
}

// NewViper builds a viper instance bound to fs with LLAMACORE_ environment
// override support, matching the teacher's envconfig naming convention
// translated into viper's idiom.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LLAMACORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}
	return v, nil
}

// rawConfig mirrors the field names a HuggingFace-style Llama config.json
// actually ships (snake_case), kept separate from model.Config so the core
// model package never needs an encoding/json dependency of its own.
type rawConfig struct {
	VocabSize         int     `json:"vocab_size"`
	HiddenSize        int     `json:"hidden_size"`
	Intermediate      int     `json:"intermediate_size"`
	NumLayers         int     `json:"num_hidden_layers"`
	NumQHeads         int     `json:"num_attention_heads"`
	NumKVHeads        int     `json:"num_key_value_heads"`
	RMSEps            float32 `json:"rms_norm_eps"`
	RoPETheta         float32 `json:"rope_theta"`
	MaxSeqLen         int     `json:"max_position_embeddings"`
	EOSTokenID        uint32  `json:"eos_token_id"`
	TorchDtype        string  `json:"torch_dtype"`
	TieWordEmbeddings bool    `json:"tie_word_embeddings"`
}

// LoadModelConfig reads a Llama-style config.json from path.
func LoadModelConfig(path string) (model.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(raw, &rc); err != nil {
		return model.Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	dtype := model.DTypeF32
	if strings.Contains(strings.ToLower(rc.TorchDtype), "bf16") || strings.Contains(strings.ToLower(rc.TorchDtype), "bfloat16") {
		dtype = model.DTypeBF16
	}

	if rc.NumQHeads == 0 {
		return model.Config{}, fmt.Errorf("config: %s: num_attention_heads must be set", path)
	}
	cfg := model.Config{
		VocabSize:         rc.VocabSize,
		HiddenSize:        rc.HiddenSize,
		Intermediate:      rc.Intermediate,
		NumLayers:         rc.NumLayers,
		NumQHeads:         rc.NumQHeads,
		NumKVHeads:        rc.NumKVHeads,
		HeadSize:          rc.HiddenSize / rc.NumQHeads,
		RMSEps:            rc.RMSEps,
		RoPETheta:         rc.RoPETheta,
		MaxSeqLen:         rc.MaxSeqLen,
		EOSTokenID:        rc.EOSTokenID,
		DType:             dtype,
		TieWordEmbeddings: rc.TieWordEmbeddings,
	}
	if err := cfg.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
