package config

import (
	"github.com/invopop/jsonschema"
)

// Schema describes the config file format as JSON Schema.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	s := r.Reflect(new(Config))
	s.Title = "solbot-lsp configuration"
	s.Description = "Settings may also be supplied through SOLBOT_LSP_* environment variables."
	return s
}
