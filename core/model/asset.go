package model

import "fmt"

// AssetKind classifies what a protected asset is.
type AssetKind string

const (
	AssetTown           AssetKind = "town"
	AssetInfrastructure AssetKind = "infrastructure"
	AssetReserve        AssetKind = "natural_reserve"
)

// ProtectedAsset is a population center, installation or reserve whose
// proximity to a demand point raises that demand's threat.
type ProtectedAsset struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     AssetKind `json:"kind"`
	Location Location  `json:"location"`
	Value    float64   `json:"value"`
}

// Validate reports the first structural problem with the asset.
func (a ProtectedAsset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("asset: missing id")
	}
	if a.Value < 0 {
		return fmt.Errorf("asset %s: negative value", a.ID)
	}
	return nil
}
