package seedcheck

import "time"

// Config holds configuration for a seed check run.
type Config struct {
	BaseURL  string        // Base URL of the service; empty skips verification
	Requests int           // Number of sourcing requests to generate
	Vendors  int           // Size of the vendor population
	Items    int           // Requested lines per request
	Workers  int           // Concurrent verification workers
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Random seed; equal seeds generate equal data
	SeedFile string        // Output file for the generated seed
	Expected string        // Output file for the expected totals
	Verbose  bool          // Enable verbose logging
}

// VendorExpectation is what the engine must report for one vendor.
type VendorExpectation struct {
	TotalCents int64 `json:"total_cents"`
	Orphans    int   `json:"orphans"`
	Invalid    int   `json:"invalid"`
}

// Total renders the expected total the way the API does.
func (v VendorExpectation) Total() string {
	return formatCents(v.TotalCents)
}

// Expectation holds the independently computed summary of one request.
type Expectation struct {
	RequestID     string                       `json:"request_id"`
	ResponseCount int                          `json:"response_count"`
	Vendors       map[string]VendorExpectation `json:"vendors"`
}

// Mismatch describes a disagreement between the engine and the expectation.
type Mismatch struct {
	RequestID string `json:"request_id"`
	Vendor    string `json:"vendor,omitempty"`
	Field     string `json:"field"`
	Want      string `json:"want"`
	Got       string `json:"got"`
}

// Stats holds run statistics.
type Stats struct {
	RequestsGenerated int
	LinesGenerated    int
	OrphansGenerated  int
	InvalidGenerated  int
	RequestsVerified  int
	RequestsFailed    int
	Mismatches        []Mismatch
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
