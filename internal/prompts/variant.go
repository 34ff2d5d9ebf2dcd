package prompts

import (
	"errors"
	"strings"
)

var ErrUnknownVariant = errors.New("unknown itinerary variant")

// Variant selects how detailed a generated itinerary is.
type Variant string

const (
	VariantFull    Variant = "full"
	VariantSlim    Variant = "slim"
	VariantMini    Variant = "mini"
	VariantChanged Variant = "changed"
)

// Variants lists every supported variant in route order.
var Variants = []Variant{VariantFull, VariantSlim, VariantMini, VariantChanged}

// VariantSpec holds the knobs a variant turns in the itinerary prompt.
// MaxSlotsPerDay of 0 means no limit. Model, when set, overrides the
// provider's default model for this variant.
type VariantSpec struct {
	Variant          Variant
	MaxSlotsPerDay   int
	DescriptionWords int
	VerifyIntervals  bool
	Model            string
}

var variantSpecs = map[Variant]VariantSpec{
	VariantFull:    {Variant: VariantFull, DescriptionWords: 50},
	VariantSlim:    {Variant: VariantSlim, MaxSlotsPerDay: 3, DescriptionWords: 10},
	VariantMini:    {Variant: VariantMini, MaxSlotsPerDay: 3, DescriptionWords: 10},
	VariantChanged: {Variant: VariantChanged, DescriptionWords: 50, VerifyIntervals: true},
}

// ParseVariant accepts a variant name case-insensitively. An empty name is full.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return VariantFull, nil
	}
	if _, ok := variantSpecs[v]; !ok {
		return "", ErrUnknownVariant
	}
	return v, nil
}

// SpecFor returns the built-in spec for v.
func SpecFor(v Variant) (VariantSpec, error) {
	spec, ok := variantSpecs[v]
	if !ok {
		return VariantSpec{}, ErrUnknownVariant
	}
	return spec, nil
}
