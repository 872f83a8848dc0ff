package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/tenderdesk/internal/domain/catalog"
	"github.com/okian/tenderdesk/internal/domain/model"
)

// Seed is the JSON document loaded into a MemoryStore.
type Seed struct {
	Requests      []model.SourcingRequest   `json:"requests"`
	Items         []model.RequestedLineItem `json:"items"`
	Bids          []model.VendorBid         `json:"bids"`
	Accounts      []model.Account           `json:"accounts"`
	Subscriptions []model.Subscription      `json:"subscriptions"`
	Activity      []model.ActivityEvent     `json:"activity"`
	Catalog       catalog.Map               `json:"catalog"`
}

// ReadSeed decodes a seed file.
func ReadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return s, nil
}

// WriteSeed encodes s into path.
func WriteSeed(path string, s Seed) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write seed: %w", err)
	}
	return nil
}
