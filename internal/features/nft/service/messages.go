package service

// Status message templates. The web client and the bot show these verbatim,
// so the wording stays frozen.
const (
	msgMintedActive     = "✅ Minted NFT Address: %s"
	msgLikelyNotMinted  = "ℹ️ NFT for user %d is likely not minted (exit code: %d)."
	msgIndexNotFound    = "ℹ️ NFT for user %d is not minted (index not found in collection)."
	msgEmptyStack       = "ℹ️ NFT for user %d is not minted (empty stack)."
	msgNoAddress        = "ℹ️ NFT for user %d is not minted (no address found)."
	msgZeroAddress      = "ℹ️ NFT for user %d is not minted (zero address returned)."
	msgNotActive        = "ℹ️ NFT for user %d is not minted (address %s is not active)."
	msgProcessingError  = "⚠️ Error processing blockchain data: %s"
	msgBlockchainError  = "Blockchain error: %s"
	msgUpstreamStatus   = "Error communicating with blockchain: Status %d"
	msgInvalidResponse  = "Invalid response from blockchain"
	msgUnexpectedFormat = "Unexpected data format in blockchain response."
	msgUnexpectedError  = "An unexpected error occurred: %s"
)
