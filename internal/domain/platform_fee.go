package domain

type TierName string

const (
	TierBasic      TierName = "basic"
	TierStandard   TierName = "standard"
	TierPremium    TierName = "premium"
	TierEnterprise TierName = "enterprise"
)

// PlatformFee is a price-range bucket. The server uses it to derive a
// specialist's platform fee from its base price.
type PlatformFee struct {
	ID                    string   `json:"id"`
	TierName              TierName `json:"tierName"`
	MinValue              float64  `json:"minValue"`
	MaxValue              float64  `json:"maxValue"`
	PlatformFeePercentage float64  `json:"platformFeePercentage"`
}

type PlatformFeeRequest struct {
	TierName              TierName `json:"tierName" validate:"required,oneof=basic standard premium enterprise"`
	MinValue              float64  `json:"minValue" validate:"gte=0"`
	MaxValue              float64  `json:"maxValue" validate:"gte=0,gtfield=MinValue"`
	PlatformFeePercentage float64  `json:"platformFeePercentage" validate:"gte=0,lte=100"`
}
