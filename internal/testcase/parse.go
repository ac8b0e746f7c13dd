// Package testcase reads knapsack instances from the plain-text case format
// and renders solved cases in the matching report format.
package testcase

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"knapsackga/internal/model"
)

var ErrMalformedInput = errors.New("malformed test case input")

// tokenReader yields whitespace separated integers and remembers the line of
// the most recent token for error messages.
type tokenReader struct {
	scanner *bufio.Scanner
	line    int
	pending []string
}

func (r *tokenReader) next() (int, error) {
	for len(r.pending) == 0 {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return 0, fmt.Errorf("%w: read line %d: %v", ErrMalformedInput, r.line+1, err)
			}
			return 0, fmt.Errorf("%w: unexpected end of input after line %d", ErrMalformedInput, r.line)
		}
		r.line++
		r.pending = strings.Fields(r.scanner.Text())
	}
	token := r.pending[0]
	r.pending = r.pending[1:]
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformedInput, r.line, token)
	}
	return v, nil
}

// ParseCases reads the case count followed by each case's
// "capacity itemCount" header and itemCount "weight value" pairs. Blank lines
// are ignored and values may be split across lines. Cases are numbered from 1
// in their instance IDs. Slices grow as records arrive, so declared counts
// larger than the input end in ErrMalformedInput.
func ParseCases(r io.Reader) ([]model.Instance, error) {
	tokens := &tokenReader{scanner: bufio.NewScanner(r)}

	count, err := tokens.next()
	if err != nil {
		return nil, fmt.Errorf("case count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: line %d: negative case count %d", ErrMalformedInput, tokens.line, count)
	}

	var instances []model.Instance
	for c := 1; c <= count; c++ {
		capacity, err := tokens.next()
		if err != nil {
			return nil, fmt.Errorf("case %d capacity: %w", c, err)
		}
		itemCount, err := tokens.next()
		if err != nil {
			return nil, fmt.Errorf("case %d item count: %w", c, err)
		}
		if capacity < 0 || itemCount < 0 {
			return nil, fmt.Errorf("%w: line %d: case %d has negative capacity or item count", ErrMalformedInput, tokens.line, c)
		}

		instance := model.Instance{
			ID:       strconv.Itoa(c),
			Capacity: capacity,
			Items:    []model.Item{},
		}
		for i := 0; i < itemCount; i++ {
			weight, err := tokens.next()
			if err != nil {
				return nil, fmt.Errorf("case %d item %d weight: %w", c, i+1, err)
			}
			value, err := tokens.next()
			if err != nil {
				return nil, fmt.Errorf("case %d item %d value: %w", c, i+1, err)
			}
			if weight < 0 || value < 0 {
				return nil, fmt.Errorf("%w: line %d: case %d item %d has negative weight or value", ErrMalformedInput, tokens.line, c, i+1)
			}
			instance.Items = append(instance.Items, model.Item{Weight: weight, Value: value})
		}
		instances = append(instances, instance)
	}
	return instances, nil
}
