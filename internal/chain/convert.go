package chain

import (
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/crunchdao/coordinator-settle/internal/ledger"
)

func blockTime(t *solana.UnixTimeSeconds) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time()
	return &v
}

func toSignatureInfos(in []*rpc.TransactionSignature) []ledger.SignatureInfo {
	out := make([]ledger.SignatureInfo, 0, len(in))
	for _, sig := range in {
		if sig == nil {
			continue
		}
		out = append(out, ledger.SignatureInfo{
			Signature: sig.Signature.String(),
			BlockTime: blockTime(sig.BlockTime),
			Failed:    sig.Err != nil,
		})
	}
	return out
}

// toRecord keeps what history scans look at: outcome, logs and the inner instructions
// the node managed to parse.
func toRecord(signature string, res *rpc.GetParsedTransactionResult) *ledger.TransactionRecord {
	if res == nil {
		return nil
	}
	rec := &ledger.TransactionRecord{
		Signature: signature,
		BlockTime: blockTime(res.BlockTime),
	}
	if res.Meta == nil {
		return rec
	}

	rec.Succeeded = res.Meta.Err == nil
	rec.LogLines = append(rec.LogLines, res.Meta.LogMessages...)
	for _, inner := range res.Meta.InnerInstructions {
		for _, ix := range inner.Instructions {
			if ix == nil {
				continue
			}
			parsed := ledger.ParsedInstruction{ProgramID: ix.ProgramId.String()}
			if ix.Parsed != nil {
				parsed.ParsedData = parsedString(ix.Parsed)
			}
			rec.InnerInstructions = append(rec.InnerInstructions, parsed)
		}
	}
	return rec
}

// parsedString returns the envelope content when the node rendered the instruction as
// plain text, as it does for memo instructions. Structured instructions yield "".
func parsedString(env *rpc.InstructionInfoEnvelope) string {
	raw, err := env.MarshalJSON()
	if err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return text
}
