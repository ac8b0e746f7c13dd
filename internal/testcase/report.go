package testcase

import (
	"fmt"
	"io"

	"knapsackga/internal/model"
)

const caseSeparator = "-----------------"

// WriteReport prints one solved case. caseNumber is 1-based and selected items
// are listed by their 1-based position.
func WriteReport(w io.Writer, caseNumber int, instance model.Instance, result model.Result) error {
	if _, err := fmt.Fprintf(w, "Test Case %d:\n", caseNumber); err != nil {
		return err
	}
	for _, idx := range result.SelectedIndices {
		item := instance.Items[idx]
		if _, err := fmt.Fprintf(w, "Item %d: Weight = %d, Value = %d\n", idx+1, item.Weight, item.Value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Number of Selected Items: %d\nTotal Weight: %d\nTotal Value: %d\n%s\n",
		len(result.SelectedIndices), result.TotalWeight, result.TotalValue, caseSeparator)
	return err
}
