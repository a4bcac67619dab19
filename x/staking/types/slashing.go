package types

import (
	"cosmossdk.io/math"
)

// SlashingSpan is a window of eras over which a validator's slashes are
// non-additive: only the maximum fraction ever reported inside the span has
// effect. A fresh span starts once the validator stays offence-free for the
// configured number of eras.
type SlashingSpan struct {
	// SpanIndex increments each time a new span begins.
	SpanIndex uint64 `json:"span_index"`
	// StartEra is the offence era that opened the span.
	StartEra uint64 `json:"start_era"`
	// LastOffenceEra is the most recent offence era seen in the span.
	LastOffenceEra uint64 `json:"last_offence_era"`
	// MaxSlashFraction is the largest fraction reported within the span.
	MaxSlashFraction math.LegacyDec `json:"max_slash_fraction"`
}

// NewSlashingSpan opens the first span for a validator at the given era.
func NewSlashingSpan(era uint64) SlashingSpan {
	return SlashingSpan{
		SpanIndex:        0,
		StartEra:         era,
		LastOffenceEra:   era,
		MaxSlashFraction: math.LegacyZeroDec(),
	}
}

// Reset opens the next span at the given era, forgetting the previous
// maximum.
func (s SlashingSpan) Reset(era uint64) SlashingSpan {
	return SlashingSpan{
		SpanIndex:        s.SpanIndex + 1,
		StartEra:         era,
		LastOffenceEra:   era,
		MaxSlashFraction: math.LegacyZeroDec(),
	}
}

// UnappliedSlash is a staged penalty waiting out the defer duration. It can
// be cancelled by governance until its application era arrives.
type UnappliedSlash struct {
	// ID is the stable identifier governance cancellation targets.
	ID uint64 `json:"id"`
	// Validator is the offender.
	Validator string `json:"validator"`
	// Era is the era the offence was committed in.
	Era uint64 `json:"era"`
	// ApplyEra is the era the penalty lands in.
	ApplyEra uint64 `json:"apply_era"`
	// Fraction is the incremental fraction this record applies.
	Fraction math.LegacyDec `json:"fraction"`
	// Own is the amount debited from the validator's own stake.
	Own math.Int `json:"own"`
	// Others are the amounts debited from each exposed nominator.
	Others []IndividualExposure `json:"others,omitempty"`
}

// TotalAmount returns the sum of all staged debits.
func (u UnappliedSlash) TotalAmount() math.Int {
	total := u.Own
	for _, o := range u.Others {
		total = total.Add(o.Value)
	}

	return total
}
