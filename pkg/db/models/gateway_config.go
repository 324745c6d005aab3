package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trivenisilks/triveni-backend/pkg/enums"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// GatewayConfig holds per-provider credentials and flags. Admin tooling
// writes these rows; the order core only reads enabled gateways. Secret
// values in Config stay server-side; responses may expose public
// identifiers (key id, merchant id, environment) only.
type GatewayConfig struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      enums.PaymentMethod `gorm:"column:name;type:text;not null;uniqueIndex"`
	IsEnabled bool                `gorm:"column:is_enabled;not null;default:false"`
	Config    types.JSONMap       `gorm:"column:config;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
