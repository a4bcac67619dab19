package types

// staking module event types
const (
	EventTypeBonded                     = "bonded"
	EventTypeUnbonded                   = "unbonded"
	EventTypeWithdrawn                  = "withdrawn"
	EventTypeEraPaid                    = "era_paid"
	EventTypeSlashed                    = "slashed"
	EventTypeSlashDeferred              = "slash_deferred"
	EventTypeSlashCancelled             = "slash_cancelled"
	EventTypeOldSlashingReportDiscarded = "old_slashing_report_discarded"
	EventTypeEraCommitted               = "era_committed"
	EventTypeElectionFallback           = "election_fallback"
	EventTypeValidatorChilled           = "validator_chilled"
)
