package util

import "github.com/bytedance/sonic"

// toJSON renders v as compact JSON for use inside prompt templates.
func toJSON(v any) (string, error) {
	return sonic.MarshalString(v)
}
