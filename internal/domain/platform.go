package domain

// BasisPointsDenominator is 100%, expressed in basis points.
const BasisPointsDenominator = 10000

// PlatformConfig holds the platform-wide settings fixed at bootstrap plus the pause switch.
type PlatformConfig struct {
	FeeBps       uint32
	MaxFeeBps    uint32
	FeeRecipient Address
	Custody      Address
	Paused       bool
}
