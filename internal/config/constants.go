package config

// Default service endpoints
const (
	DefaultFeedURL  = "wss://pumpportal.fun/api/data"
	DefaultTradeURL = "https://pumpportal.fun/api/trade-local"
	DefaultRPCUrl   = "https://api.mainnet-beta.solana.com"

	// Transaction viewer
	SolscanTxBase = "https://solscan.io/tx/"
)

// Solana constants
const (
	LamportsPerSol = 1_000_000_000
)

// Trading defaults
const (
	// Slippage tolerance in percent
	DefaultSlippage = 90.0

	// Priority fee bid in SOL
	DefaultPriorityFee = 0.001

	// Exchange pool selector
	DefaultPool = "pump"

	// Trade-construction request timeout in seconds
	DefaultTradeTimeoutSec = 30
)

// ConvertLamportsToSOL converts lamports to SOL
func ConvertLamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(LamportsPerSol)
}

// ConvertSOLToLamports converts SOL to lamports
func ConvertSOLToLamports(sol float64) uint64 {
	return uint64(sol * float64(LamportsPerSol))
}

// SolscanTxURL builds a transaction viewer URL for a signature
func SolscanTxURL(signature string) string {
	return SolscanTxBase + signature
}
