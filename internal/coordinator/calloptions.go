package coordinator

import (
	"encoding/json"
	"time"

	"go-genai-core/internal/apierr"
	"go-genai-core/internal/authstrategy"
	"go-genai-core/internal/config"
)

// ResolvedCallOptions is the typed result of mapping a dynamic per-call
// options map onto the coordinator's call surface. Model is carried
// separately because Generate/CountTokens take it as a positional argument
// rather than an Options field.
type ResolvedCallOptions struct {
	Model     string
	GenConfig *GenerationConfig
	Options   Options
}

// ResolveCallOptions is the production entry point for config.ValidateOptionKeys:
// a caller that decodes per-call options from an untyped source (JSON body,
// CLI flag bag, RPC struct) routes them through here instead of building
// Options by hand, so an unrecognized key is rejected with a ConfigError
// rather than silently ignored.
func ResolveCallOptions(raw map[string]any) (ResolvedCallOptions, error) {
	if err := config.ValidateOptionKeys(raw); err != nil {
		return ResolvedCallOptions{}, err
	}

	var out ResolvedCallOptions
	genConfig := GenerationConfig{}
	var genConfigSet bool

	if v, ok := raw["model"]; ok {
		if s, ok := v.(string); ok {
			out.Model = s
		}
	}
	if v, ok := raw["auth"]; ok {
		if s, ok := v.(string); ok {
			out.Options.Auth = authstrategy.Strategy(s)
		}
	}
	if v, ok := raw["timeout"]; ok {
		seconds, ok := v.(float64)
		if !ok {
			return ResolvedCallOptions{}, apierr.New(apierr.KindConfig, "timeout must be a number of seconds")
		}
		out.Options.Timeout = time.Duration(seconds * float64(time.Second))
	}
	if v, ok := raw["max_retries"]; ok {
		count, ok := v.(float64)
		if !ok {
			return ResolvedCallOptions{}, apierr.New(apierr.KindConfig, "max_retries must be a number")
		}
		out.Options.MaxRetries = int(count)
	}

	if v, ok := raw["temperature"]; ok {
		if err := remarshalInto(v, &genConfig.Temperature); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}
	if v, ok := raw["top_p"]; ok {
		if err := remarshalInto(v, &genConfig.TopP); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}
	if v, ok := raw["top_k"]; ok {
		if err := remarshalInto(v, &genConfig.TopK); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}
	if v, ok := raw["max_output_tokens"]; ok {
		if err := remarshalInto(v, &genConfig.MaxOutputTokens); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}
	if v, ok := raw["stop_sequences"]; ok {
		if err := remarshalInto(v, &genConfig.StopSequences); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}
	if v, ok := raw["candidate_count"]; ok {
		if err := remarshalInto(v, &genConfig.CandidateCount); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}
	if v, ok := raw["response_mime_type"]; ok {
		if err := remarshalInto(v, &genConfig.ResponseMIMEType); err != nil {
			return ResolvedCallOptions{}, err
		}
		genConfigSet = true
	}

	if v, ok := raw["safety_settings"]; ok {
		if err := remarshalInto(v, &out.Options.SafetySettings); err != nil {
			return ResolvedCallOptions{}, err
		}
	}
	if v, ok := raw["system_instruction"]; ok {
		if err := remarshalInto(v, &out.Options.SystemInstruction); err != nil {
			return ResolvedCallOptions{}, err
		}
	}
	if v, ok := raw["tools"]; ok {
		if err := remarshalInto(v, &out.Options.Tools); err != nil {
			return ResolvedCallOptions{}, err
		}
	}

	if genConfigSet {
		out.GenConfig = &genConfig
	}
	return out, nil
}

// remarshalInto converts a loosely-typed value (as produced by decoding a
// JSON object into map[string]any) into dst by round-tripping it through
// encoding/json, the same technique decodeNormalized uses to settle a
// dynamic upstream response into a typed struct.
func remarshalInto(v any, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apierr.Wrap(apierr.KindConfig, err, "failed to encode option value")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apierr.Wrap(apierr.KindConfig, err, "failed to decode option value")
	}
	return nil
}
