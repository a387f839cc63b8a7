// Package tokens lists the tokens of a TZIP-12 contract by running its
// off-chain views: all_tokens once, then token_metadata and total_supply for
// each id in order.
//
// Only the all_tokens step can fail the whole enumeration. Everything after
// it fails per field, recorded on the affected Record.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/decode"
	"github.com/teranos/tzmeta/errors"
	"github.com/teranos/tzmeta/internal/util"
	"github.com/teranos/tzmeta/logger"
	"github.com/teranos/tzmeta/micheline"
	"github.com/teranos/tzmeta/offchain"
	"github.com/teranos/tzmeta/pulse"
	"github.com/teranos/tzmeta/validation"
)

// Caller runs one view call; *offchain.Client implements it
type Caller interface {
	CallView(ctx context.Context, req offchain.Request) (offchain.Outcome, error)
}

// FieldError is a failure confined to one field of one Record
type FieldError struct {
	Message string `json:"error"`
}

func (e *FieldError) Error() string {
	return e.Message
}

func fieldError(format string, args ...interface{}) *FieldError {
	return &FieldError{Message: fmt.Sprintf(format, args...)}
}

// Record is what is known about one token.
// MetadataErr set means Symbol, Name, Decimals and Extras are all unknown.
// SupplyErr set means TotalSupply is unknown.
type Record struct {
	TokenID *big.Int

	Symbol      *string
	Name        *string
	Decimals    *int
	Extras      []decode.KV
	MetadataErr *FieldError

	TotalSupply *decode.Amount
	SupplyErr   *FieldError
}

// Known token_metadata keys lifted out of the extras bag
const (
	KeySymbol   = "symbol"
	KeyName     = "name"
	KeyDecimals = "decimals"
)

// Enumerate runs the pipeline for the contract at address. It returns an
// error only when all_tokens cannot be used; per-token failures are inside
// the records. progress receives one line per attempted view call.
func Enumerate(ctx context.Context, caller Caller, address string, classified classify.Result, progress pulse.ProgressEmitter) ([]Record, error) {
	if progress == nil {
		progress = pulse.Discard
	}
	log := logger.ComponentLogger("tokens").With(logger.FieldContract, address)

	if classified.Kind != classify.TokenStandard {
		return nil, errors.NewInvalidRequestError("metadata does not declare the token standard views")
	}
	allTokens, ok := classified.AllTokens.Implementation()
	if !ok {
		return nil, errors.NewInvalidRequestError("all_tokens view is %s", classified.AllTokens.Kind)
	}

	progress.EmitInfo("Calling all_tokens")
	out, err := caller.CallView(ctx, offchain.Request{
		Address:  address,
		ViewName: validation.ViewAllTokens,
		View:     allTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, "all_tokens call failed")
	}
	ids, err := decode.IntList(out.Result)
	if err != nil {
		return nil, errors.Wrap(err, "all_tokens returned an unexpected value")
	}
	log.Infow("Enumerating tokens", logger.FieldCount, len(ids))

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, enumerateOne(ctx, caller, address, classified, id, progress))
	}
	return records, nil
}

func enumerateOne(ctx context.Context, caller Caller, address string, classified classify.Result, id *big.Int, progress pulse.ProgressEmitter) Record {
	rec := Record{TokenID: new(big.Int).Set(id)}
	param := micheline.BigInt(id)

	if impl, ok := classified.TokenMetadata.Implementation(); ok {
		progress.EmitInfo(fmt.Sprintf("Calling token_metadata for token %s", id))
		out, err := caller.CallView(ctx, offchain.Request{
			Address:   address,
			ViewName:  validation.ViewTokenMetadata,
			View:      impl,
			Parameter: &param,
		})
		if err != nil {
			rec.MetadataErr = fieldError("token_metadata call failed: %s", err)
		} else if kvs, err := decode.MetadataMap(out.Result); err != nil {
			rec.MetadataErr = fieldError("token_metadata decode failed: %s", err)
		} else {
			rec.applyMetadata(kvs)
		}
	} else {
		rec.MetadataErr = fieldError("token_metadata view is %s", classified.TokenMetadata.Kind)
	}

	if impl, ok := classified.TotalSupply.Implementation(); ok {
		progress.EmitInfo(fmt.Sprintf("Calling total_supply for token %s", id))
		out, err := caller.CallView(ctx, offchain.Request{
			Address:   address,
			ViewName:  validation.ViewTotalSupply,
			View:      impl,
			Parameter: &param,
		})
		if err != nil {
			rec.SupplyErr = fieldError("total_supply call failed: %s", err)
		} else if raw, err := decode.Nat(out.Result); err != nil {
			rec.SupplyErr = fieldError("total_supply decode failed: %s", err)
		} else {
			amount := decode.Scale(raw, rec.Decimals)
			rec.TotalSupply = &amount
		}
	} else {
		rec.SupplyErr = fieldError("total_supply view is %s", classified.TotalSupply.Kind)
	}
	return rec
}

// applyMetadata splits decoded pairs into the known fields and extras.
// A decimals value that is not a non-negative integer stays in extras.
func (r *Record) applyMetadata(kvs []decode.KV) {
	r.Extras = []decode.KV{}
	for _, kv := range kvs {
		switch kv.Key {
		case KeySymbol:
			r.Symbol = util.Ptr(kv.Value)
		case KeyName:
			r.Name = util.Ptr(kv.Value)
		case KeyDecimals:
			if d := decode.ParseDecimals(kv.Value); d != nil {
				r.Decimals = d
				continue
			}
			r.Extras = append(r.Extras, kv)
		default:
			r.Extras = append(r.Extras, kv)
		}
	}
}

// MarshalJSON renders a record with per-field errors inline
func (r Record) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"token_id": r.TokenID.String(),
	}
	if r.MetadataErr != nil {
		out["metadata"] = r.MetadataErr
	} else {
		out["metadata"] = map[string]interface{}{
			"symbol":   r.Symbol,
			"name":     r.Name,
			"decimals": r.Decimals,
			"extras":   r.Extras,
		}
	}
	if r.SupplyErr != nil {
		out["total_supply"] = r.SupplyErr
	} else if r.TotalSupply != nil {
		out["total_supply"] = map[string]string{
			"raw":     r.TotalSupply.Raw.String(),
			"display": r.TotalSupply.Display,
		}
	}
	return json.Marshal(out)
}
