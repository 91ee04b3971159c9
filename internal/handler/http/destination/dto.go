package destination

import (
	"time"

	"channel-notifier/internal/domain/entity"
)

type DTO struct {
	ID            int64     `json:"id"`
	GroupingLabel string    `json:"grouping_label"`
	DisplayLabel  string    `json:"display_label"`
	EndpointURL   string    `json:"endpoint_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toDTO(d *entity.Destination) DTO {
	return DTO{
		ID:            d.ID,
		GroupingLabel: d.GroupingLabel,
		DisplayLabel:  d.DisplayLabel,
		EndpointURL:   d.EndpointURL,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
