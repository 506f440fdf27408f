package profile

import _ "embed"

//go:embed profiles/default.yaml
var defaultYAML []byte

//go:embed profiles/swimwear.yaml
var swimwearYAML []byte

//go:embed profiles/formalwear.yaml
var formalwearYAML []byte

// builtinProfiles maps profile names to their embedded YAML content.
var builtinProfiles = map[string][]byte{
	"default":    defaultYAML,
	"swimwear":   swimwearYAML,
	"formalwear": formalwearYAML,
}
