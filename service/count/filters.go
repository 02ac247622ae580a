package count

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Filters narrow which parts a partial or cyclic count snapshots. They
// arrive as a free-form JSON object and are decoded leniently, so numeric
// strings and float-decoded ids both work.
type Filters struct {
	CodePrefix     string `mapstructure:"code_prefix"`
	PartIDs        []uint `mapstructure:"part_ids"`
	BelowThreshold bool   `mapstructure:"below_threshold"`
}

func DecodeFilters(raw map[string]interface{}) (*Filters, error) {
	var f Filters
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode count filters: %w", err)
	}
	return &f, nil
}
