// Package enrollment classifies the recorded enrollment of an authority against the
// value currently published for it.
package enrollment

import (
	"encoding/json"
	"time"

	"github.com/crunchdao/coordinator-settle/internal/history"
	"github.com/crunchdao/coordinator-settle/internal/memo"
)

// DefaultComparisonKey is the memo field compared with the live value.
const DefaultComparisonKey = "hotkey"

// State is either Absent or Present. Values are built fresh on every reconciliation
// and never mutated afterwards.
type State interface {
	isState()
	Status() string
}

// Absent means no accepted memo was found. Truncated reports that the scan window was
// full, so the memo may exist further back in history.
type Absent struct {
	Examined  int
	Truncated bool
}

// Present carries both the recorded payload and the live value so a consumer can
// render "recorded X, currently Y".
type Present struct {
	Payload   memo.Payload
	Signature string
	BlockTime *time.Time
	LiveValue *string
	IsStale   bool
}

func (Absent) isState()  {}
func (Present) isState() {}

func (Absent) Status() string { return "absent" }

func (p Present) Status() string {
	if p.IsStale {
		return "stale"
	}
	return "present"
}

func (a Absent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status    string `json:"status"`
		Examined  int    `json:"examined"`
		Truncated bool   `json:"truncated"`
	}{a.Status(), a.Examined, a.Truncated})
}

func (p Present) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status    string       `json:"status"`
		Payload   memo.Payload `json:"payload"`
		Signature string       `json:"signature"`
		BlockTime *time.Time   `json:"block_time,omitempty"`
		LiveValue *string      `json:"live_value"`
		IsStale   bool         `json:"is_stale"`
	}{p.Status(), p.Payload, p.Signature, p.BlockTime, p.LiveValue, p.IsStale})
}

// Resolve is pure: a nil match is Absent, anything else is Present with staleness
// computed against liveValue. Comparison is exact and case sensitive.
func Resolve(match *history.Match, liveValue *string, comparisonKey string) State {
	if match == nil {
		return Absent{}
	}
	if comparisonKey == "" {
		comparisonKey = DefaultComparisonKey
	}

	var live *string
	if liveValue != nil {
		v := *liveValue
		live = &v
	}
	return Present{
		Payload:   match.Payload,
		Signature: match.Signature,
		BlockTime: match.BlockTime,
		LiveValue: live,
		IsStale:   live == nil || *live != match.Payload.Get(comparisonKey),
	}
}

// ResolveOutcome is Resolve with the scan window details kept on Absent.
func ResolveOutcome(outcome *history.Outcome, liveValue *string, comparisonKey string) State {
	if outcome == nil {
		return Absent{}
	}
	if outcome.Match == nil {
		return Absent{Examined: outcome.Examined, Truncated: outcome.Truncated}
	}
	return Resolve(outcome.Match, liveValue, comparisonKey)
}
