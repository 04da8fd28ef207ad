package latch

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Codec defines the deserialization contract for configuration data.
type Codec interface {
	// Unmarshal deserializes bytes into a value.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json.
// Durations are integer nanoseconds.
type JSONCodec struct{}

// Unmarshal deserializes JSON bytes into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
// Durations may be written as strings such as "1s" or "250ms".
type YAMLCodec struct{}

// Unmarshal deserializes YAML bytes into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// TOMLCodec implements Codec using github.com/BurntSushi/toml.
// Durations may be written as strings such as "1s".
type TOMLCodec struct{}

// Unmarshal deserializes TOML bytes into v.
func (TOMLCodec) Unmarshal(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

// ContentType returns the TOML MIME type.
func (TOMLCodec) ContentType() string {
	return "application/toml"
}

// CodecFor picks a codec from a file extension: .json selects JSONCodec,
// .toml selects TOMLCodec, anything else YAMLCodec.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONCodec{}
	case ".toml":
		return TOMLCodec{}
	}
	return YAMLCodec{}
}

var (
	_ Codec = JSONCodec{}
	_ Codec = YAMLCodec{}
	_ Codec = TOMLCodec{}
)
