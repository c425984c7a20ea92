package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalStatusText(t *testing.T) {
	for _, status := range []ProposalStatus{ProposalPendingCreation, ProposalAwaitingExecution, ProposalExecuted, ProposalRejected} {
		raw, err := json.Marshal(status)
		require.Nil(t, err)

		var decoded ProposalStatus
		require.Nil(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, status, decoded)
	}

	var s ProposalStatus
	require.NotNil(t, s.UnmarshalText([]byte("approved")))
	assert.Equal(t, "unknown", ProposalStatus(42).String())
}
