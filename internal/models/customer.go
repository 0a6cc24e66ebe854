// internal/models/customer.go
package models

import "strings"

// Customer is a billed organization. Realms is a comma-separated list of the
// identity realms whose usage bills to this customer.
type Customer struct {
	ID              int64   `json:"id"`
	CustomerAbbr    string  `json:"customer_abbr"`
	PartnerID       string  `json:"partner_id,omitempty"`
	Name            string  `json:"name"`
	ContactEmail    string  `json:"contact_email,omitempty"`
	PricePlan       string  `json:"priceplan"`
	BaseFee         float64 `json:"base_fee"`
	Realms          string  `json:"realms"`
	Notes           string  `json:"notes,omitempty"`
	BlocksPurchased int64   `json:"blocks_purchased"`
}

// RealmList splits the comma-separated realms field.
func (c Customer) RealmList() []string {
	if c.Realms == "" {
		return nil
	}
	parts := strings.Split(c.Realms, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// CustomerStats aggregates consumption against purchased blocks.
type CustomerStats struct {
	CustomerID             int64   `json:"customer_id"`
	TotalUsers             int64   `json:"total_users"`
	TranscribedMinutes     float64 `json:"transcribed_minutes"`
	ExternalMinutes        float64 `json:"external_minutes"`
	BlocksConsumed         float64 `json:"blocks_consumed"`
	OverageMinutes         float64 `json:"overage_minutes"`
	RemainingMinutes       float64 `json:"remaining_minutes"`
}

// ComputeBlockUsage fills the derived fields from raw minutes, purchased
// blocks and the configured block size in minutes.
func (s *CustomerStats) ComputeBlockUsage(blocksPurchased int64, blockMinutes int) {
	size := float64(blockMinutes)
	if size <= 0 {
		return
	}
	used := s.TranscribedMinutes + s.ExternalMinutes
	s.BlocksConsumed = used / size
	purchased := float64(blocksPurchased) * size
	if used > purchased {
		s.OverageMinutes = used - purchased
		s.RemainingMinutes = 0
	} else {
		s.OverageMinutes = 0
		s.RemainingMinutes = purchased - used
	}
}
