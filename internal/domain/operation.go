// Package domain defines the core persistence models for the application.
// This file defines the closed set of image operation kinds and the static
// pricing table attached to them. Pricing is intentionally centralized
// here so a cost change touches exactly one place.
package domain

import "fmt"

// OperationKind identifies one of the fixed image transformation types the
// application charges for. The string values are the wire and storage
// representation and must stay stable.
type OperationKind string

const (
	// KindGenerativeFill pads an image to a new aspect ratio with
	// AI-generated background content.
	KindGenerativeFill OperationKind = "generative_fill"
	// KindRestore removes noise and imperfections from old photos.
	KindRestore OperationKind = "restore"
	// KindRecolor changes the color of a described object.
	KindRecolor OperationKind = "recolor"
	// KindRemoveObject erases a described object from the image.
	KindRemoveObject OperationKind = "remove_object"
)

// Kinds lists every valid operation kind in display order.
func Kinds() []OperationKind {
	return []OperationKind{KindGenerativeFill, KindRestore, KindRecolor, KindRemoveObject}
}

// Credits returns the number of credits the kind costs. Unknown or legacy
// kinds price at 0 so that historical rows with retired kinds keep
// rendering instead of erroring.
func (k OperationKind) Credits() int {
	switch k {
	case KindGenerativeFill:
		return 3
	case KindRestore:
		return 2
	case KindRecolor:
		return 1
	case KindRemoveObject:
		return 2
	default:
		return 0
	}
}

// Valid reports whether k is one of the known operation kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case KindGenerativeFill, KindRestore, KindRecolor, KindRemoveObject:
		return true
	}
	return false
}

// ParseOperationKind converts a wire string into an OperationKind,
// rejecting anything outside the closed set.
func ParseOperationKind(s string) (OperationKind, error) {
	k := OperationKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown operation kind %q", s)
	}
	return k, nil
}

// CreditCosts returns the full kind -> cost table, as served by the
// credit-costs endpoint.
func CreditCosts() map[OperationKind]int {
	out := make(map[OperationKind]int, len(Kinds()))
	for _, k := range Kinds() {
		out[k] = k.Credits()
	}
	return out
}
