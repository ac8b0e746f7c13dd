package evo

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid ga configuration")
	ErrInvalidInstance = errors.New("invalid knapsack instance")
)
