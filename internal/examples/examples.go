// Package examples embeds the wizard definitions shipped with the binary.
package examples

import (
	"bytes"
	_ "embed"

	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

//go:embed wealth.yaml
var wealthYAML []byte

// WealthYAML returns the raw three-step "Basic Info / Wealth Info / More
// Info" definition.
func WealthYAML() []byte {
	return append([]byte(nil), wealthYAML...)
}

// Wealth returns the parsed three-step definition.
func Wealth() (*wizard.Definition, error) {
	return wizard.ParseDefinition(bytes.NewReader(wealthYAML))
}
