package valuetree

import (
	sdkmath "cosmossdk.io/math"
)

// AmountPair is a substructure carrying both a base token amount and a
// derivative token amount, both in smallest units.
type AmountPair struct {
	Base       sdkmath.Int
	Derivative sdkmath.Int
}

// PairAt reads the pair stored directly on n, if both fields are integers.
func PairAt(n Node, baseField, derivativeField string) (AmountPair, bool) {
	baseNode, ok := n.Field(baseField)
	if !ok {
		return AmountPair{}, false
	}
	derivativeNode, ok := n.Field(derivativeField)
	if !ok {
		return AmountPair{}, false
	}
	base, ok := baseNode.Int()
	if !ok {
		return AmountPair{}, false
	}
	derivative, ok := derivativeNode.Int()
	if !ok {
		return AmountPair{}, false
	}
	return AmountPair{Base: base, Derivative: derivative}, true
}

// FindAmountPairs walks the whole tree depth first, parents before children
// and children in document order, and returns every object carrying both fields.
func FindAmountPairs(root Node, baseField, derivativeField string) []AmountPair {
	var pairs []AmountPair

	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.kind == KindObject {
			if pair, ok := PairAt(n, baseField, derivativeField); ok {
				pairs = append(pairs, pair)
			}
		}

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return pairs
}

// SelectPair prefers the first pair whose derivative amount equals expected,
// falling back to the last pair found.
func SelectPair(pairs []AmountPair, expected sdkmath.Int) (AmountPair, bool) {
	if len(pairs) == 0 {
		return AmountPair{}, false
	}
	for _, pair := range pairs {
		if pair.Derivative.Equal(expected) {
			return pair, true
		}
	}
	return pairs[len(pairs)-1], true
}
