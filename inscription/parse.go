package inscription

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// Revealed is what ParseRevealScript recovers from a reveal script: the
// rollup name, signature, sequencer pubkey, and reassembled body, bit for
// bit (spec.md §8's round-trip invariant).
type Revealed struct {
	RollupName      string
	Signature       []byte
	SequencerPubKey []byte
	Body            []byte
}

// ParseRevealScript walks the reveal script's envelope and recovers the
// tagged fields, ignoring the leading pubkey/OP_CHECKSIG and the nonce.
func ParseRevealScript(script []byte) (Revealed, error) {
	tok := txscript.MakeScriptTokenizer(0, script)

	next := func() ([]byte, byte, bool) {
		if !tok.Next() {
			return nil, 0, false
		}
		return tok.Data(), tok.Opcode(), true
	}

	if _, _, ok := next(); !ok { // <pubkey>
		return Revealed{}, fmt.Errorf("reveal script: missing pubkey push")
	}
	if _, op, ok := next(); !ok || op != txscript.OP_CHECKSIG {
		return Revealed{}, fmt.Errorf("reveal script: expected OP_CHECKSIG")
	}
	if _, op, ok := next(); !ok || op != txscript.OP_FALSE {
		return Revealed{}, fmt.Errorf("reveal script: expected OP_FALSE")
	}
	if _, op, ok := next(); !ok || op != txscript.OP_IF {
		return Revealed{}, fmt.Errorf("reveal script: expected OP_IF")
	}

	readTagged := func(wantTag []byte) ([]byte, error) {
		tag, _, ok := next()
		if !ok {
			return nil, fmt.Errorf("reveal script: missing %q tag", wantTag)
		}
		if !bytes.Equal(tag, wantTag) {
			return nil, fmt.Errorf("reveal script: expected tag %q, got %q",
				wantTag, tag)
		}
		val, _, ok := next()
		if !ok {
			return nil, fmt.Errorf("reveal script: missing value for tag %q", wantTag)
		}
		return val, nil
	}

	name, err := readTagged(tagRollupName)
	if err != nil {
		return Revealed{}, err
	}
	sig, err := readTagged(tagSignature)
	if err != nil {
		return Revealed{}, err
	}
	seqPk, err := readTagged(tagPublicKey)
	if err != nil {
		return Revealed{}, err
	}
	if _, err := readTagged(tagRandom); err != nil {
		return Revealed{}, err
	}

	bodyTag, _, ok := next()
	if !ok {
		return Revealed{}, fmt.Errorf("reveal script: missing body tag")
	}
	if !bytes.Equal(bodyTag, tagBody) {
		return Revealed{}, fmt.Errorf("reveal script: expected body tag, got %q", bodyTag)
	}

	var body bytes.Buffer
	for {
		data, op, ok := next()
		if !ok {
			return Revealed{}, fmt.Errorf("reveal script: missing OP_ENDIF")
		}
		if op == txscript.OP_ENDIF {
			break
		}
		body.Write(data)
	}

	if err := tok.Err(); err != nil {
		return Revealed{}, fmt.Errorf("reveal script: tokenizer error: %w", err)
	}

	return Revealed{
		RollupName:      string(name),
		Signature:       sig,
		SequencerPubKey: seqPk,
		Body:            body.Bytes(),
	}, nil
}
