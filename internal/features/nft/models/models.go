package models

// Status is the outcome of a mint verification for one Telegram user. Message
// is always set and is the exact text shown to the user; Address is only set
// when an active NFT was found.
type Status struct {
	UserID  int64  `json:"user_id"`
	Minted  bool   `json:"minted"`
	Address string `json:"address,omitempty"`
	Message string `json:"message"`
}
