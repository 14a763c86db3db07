package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeArgs maps loosely typed decision arguments onto a typed struct.
// Unknown keys are ignored, like keyword arguments a tool does not use.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func requireString(name, value string) error {
	if value == "" {
		return fmt.Errorf("missing required argument %q", name)
	}
	return nil
}
