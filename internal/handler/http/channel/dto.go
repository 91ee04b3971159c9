package channel

import (
	"time"

	"channel-notifier/internal/domain/entity"
)

type DTO struct {
	ID             int64     `json:"id"`
	DestinationID  int64     `json:"destination_id"`
	ExternalID     string    `json:"external_id"`
	ExternalHandle string    `json:"external_handle"`
	DisplayName    string    `json:"display_name"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toDTO(c *entity.Channel) DTO {
	return DTO{
		ID:             c.ID,
		DestinationID:  c.DestinationID,
		ExternalID:     c.ExternalID,
		ExternalHandle: c.ExternalHandle,
		DisplayName:    c.DisplayName,
		LastCheckedAt:  c.LastCheckedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
