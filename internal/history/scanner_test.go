package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/crunchdao/coordinator-settle/internal/components/retrypolicy"
	"github.com/crunchdao/coordinator-settle/internal/ledger"
	"github.com/crunchdao/coordinator-settle/internal/ledger/mock_ledger"
	"github.com/crunchdao/coordinator-settle/internal/memo"
	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

const testAddress = "CoordAuthority1111111111111111111111111111"

var enrollmentSchema = memo.NewSchema("cert_pub", "hotkey")

func sigName(i int) string {
	return fmt.Sprintf("sig-%02d", i)
}

func signatures(n int) []ledger.SignatureInfo {
	sigs := make([]ledger.SignatureInfo, n)
	for i := range sigs {
		sigs[i] = ledger.SignatureInfo{Signature: sigName(i)}
	}
	return sigs
}

func emptyRecord(sig string) *ledger.TransactionRecord {
	return &ledger.TransactionRecord{
		Signature: sig,
		Succeeded: true,
		LogLines:  []string{"Program 11111111111111111111111111111111 invoke [1]", "Program 11111111111111111111111111111111 success"},
	}
}

func memoRecord(sig string, p memo.Payload) *ledger.TransactionRecord {
	rec := emptyRecord(sig)
	rec.LogLines = append(rec.LogLines, memo.LogLine(p))
	return rec
}

func newTestScanner(reader ledger.Reader, window int) *Scanner {
	return New(Config{
		WindowSize: window,
		Retry:      retrypolicy.Policy{Limit: 2, Wait: time.Millisecond, Backoff: repo.BackoffFixed},
	}, reader, enrollmentSchema)
}

func TestScanFindsOnlyValidMemo(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	want := memo.Payload{"cert_pub": "AAAA", "hotkey": "BBBB"}
	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(signatures(50), nil)
	for i := 0; i < 7; i++ {
		reader.EXPECT().GetTransaction(gomock.Any(), sigName(i)).Return(emptyRecord(sigName(i)), nil)
	}
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(7)).Return(memoRecord(sigName(7), want), nil)

	s := newTestScanner(reader, 50)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, err)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, sigName(7), outcome.Match.Signature)
	assert.Equal(t, want, outcome.Match.Payload)
	assert.Equal(t, 8, outcome.Examined)
	assert.True(t, outcome.Truncated)
}

func TestScanNewestWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	newer := memo.Payload{"cert_pub": "NEW", "hotkey": "H1"}
	older := memo.Payload{"cert_pub": "OLD", "hotkey": "H0"}
	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(signatures(50), nil)
	for i := 0; i < 3; i++ {
		reader.EXPECT().GetTransaction(gomock.Any(), sigName(i)).Return(emptyRecord(sigName(i)), nil)
	}
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(3)).Return(memoRecord(sigName(3), newer), nil)
	// index 7 carries an older memo and must never be fetched
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(7)).Return(memoRecord(sigName(7), older), nil).Times(0)

	s := newTestScanner(reader, 50)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, err)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, sigName(3), outcome.Match.Signature)
	assert.Equal(t, "NEW", outcome.Match.Payload.Get("cert_pub"))
}

func TestScanSkipsMalformedAndFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	sigs := signatures(4)
	sigs[1].Failed = true
	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(sigs, nil)

	malformed := emptyRecord(sigName(0))
	malformed.LogLines = append(malformed.LogLines, `Program log: Memo (len 9): "{\"cert_pub"`)
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(0)).Return(malformed, nil)

	reverted := memoRecord(sigName(2), memo.Payload{"cert_pub": "X", "hotkey": "Y"})
	reverted.Succeeded = false
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(2)).Return(reverted, nil)

	inner := emptyRecord(sigName(3))
	inner.InnerInstructions = []ledger.ParsedInstruction{
		{ProgramID: repo.MemoProgramID, ParsedData: `{"cert_pub":"C","hotkey":"H"}`},
	}
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(3)).Return(inner, nil)

	s := newTestScanner(reader, 50)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, err)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, sigName(3), outcome.Match.Signature)
	assert.Equal(t, "C", outcome.Match.Payload.Get("cert_pub"))
	assert.Equal(t, 3, outcome.Examined)
}

func TestScanInnerInstructionIgnoresOtherPrograms(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 2).Return(signatures(2), nil)
	rec := emptyRecord(sigName(0))
	rec.InnerInstructions = []ledger.ParsedInstruction{
		{ProgramID: "SomeOtherProgram1111111111111111111111111", ParsedData: `{"cert_pub":"C","hotkey":"H"}`},
	}
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(0)).Return(rec, nil)
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(1)).Return(emptyRecord(sigName(1)), nil)

	s := newTestScanner(reader, 2)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, err)
	assert.Nil(t, outcome.Match)
	assert.Equal(t, 2, outcome.Examined)
	assert.True(t, outcome.Truncated)
}

func TestScanNetworkError(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	rpcErr := errors.New("connection refused")
	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(nil, rpcErr).Times(2)

	s := newTestScanner(reader, 50)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, outcome)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestScanTransactionErrorRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	want := memo.Payload{"cert_pub": "AAAA", "hotkey": "BBBB"}
	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(signatures(1), nil)
	gomock.InOrder(
		reader.EXPECT().GetTransaction(gomock.Any(), sigName(0)).Return(nil, errors.New("429 too many requests")),
		reader.EXPECT().GetTransaction(gomock.Any(), sigName(0)).Return(memoRecord(sigName(0), want), nil),
	)

	s := newTestScanner(reader, 50)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, err)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, want, outcome.Match.Payload)
}

func TestScanTransactionErrorExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(signatures(3), nil)
	reader.EXPECT().GetTransaction(gomock.Any(), sigName(0)).Return(nil, errors.New("timeout")).Times(2)

	s := newTestScanner(reader, 50)
	_, err := s.Scan(context.Background(), testAddress)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestScanEmptyHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock_ledger.NewMockReader(ctrl)

	reader.EXPECT().ListRecentSignatures(gomock.Any(), testAddress, 50).Return(nil, nil)

	s := newTestScanner(reader, 50)
	outcome, err := s.Scan(context.Background(), testAddress)
	require.Nil(t, err)
	assert.Nil(t, outcome.Match)
	assert.Equal(t, 0, outcome.Examined)
	assert.False(t, outcome.Truncated)
}
