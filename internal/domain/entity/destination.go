package entity

import (
	"strings"
	"time"
)

const (
	// MaxGroupingLabelLength bounds Destination.GroupingLabel.
	MaxGroupingLabelLength = 30
	// MaxDisplayLabelLength bounds Destination.DisplayLabel.
	MaxDisplayLabelLength = 20
)

// Destination is an outbound webhook that receives new-item notifications.
// GroupingLabel is typically the workspace name, DisplayLabel the webhook name.
type Destination struct {
	ID            int64
	GroupingLabel string
	DisplayLabel  string
	EndpointURL   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Normalize trims surrounding whitespace from the user-entered fields.
func (d *Destination) Normalize() {
	d.GroupingLabel = strings.TrimSpace(d.GroupingLabel)
	d.DisplayLabel = strings.TrimSpace(d.DisplayLabel)
	d.EndpointURL = strings.TrimSpace(d.EndpointURL)
}

// Validate checks label bounds and the endpoint URL.
func (d *Destination) Validate() error {
	if err := ValidateLabel("grouping_label", d.GroupingLabel, MaxGroupingLabelLength); err != nil {
		return err
	}
	if err := ValidateLabel("display_label", d.DisplayLabel, MaxDisplayLabelLength); err != nil {
		return err
	}
	return ValidateURL("endpoint_url", d.EndpointURL)
}
