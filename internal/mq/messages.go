package mq

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/runtime"
	"nft-escrow-sol/internal/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Signature 单个签名者对交易消息体的 ed25519 签名
type Signature struct {
	Signer types.Pubkey
	Sig    [ed25519.SignatureSize]byte
}

// TxRequest tx topic 的消息体，Transaction 为 borsh(domain.Transaction)
type TxRequest struct {
	Transaction []byte
	Signatures  []Signature
}

// NewTxRequest 编码交易并用给定账户签名
func NewTxRequest(tx *domain.Transaction, signers ...sdktypes.Account) (*TxRequest, error) {
	msg, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	req := &TxRequest{Transaction: msg, Signatures: make([]Signature, 0, len(signers))}
	for _, s := range signers {
		var sig Signature
		sig.Signer = types.PubkeyFromCommon(s.PublicKey)
		copy(sig.Sig[:], s.Sign(msg))
		req.Signatures = append(req.Signatures, sig)
	}
	return req, nil
}

func (r *TxRequest) Encode() ([]byte, error) {
	data, err := borsh.Serialize(*r)
	if err != nil {
		return nil, fmt.Errorf("encode tx request: %w", err)
	}
	return data, nil
}

func DecodeTxRequest(data []byte) (*TxRequest, error) {
	var r TxRequest
	if err := borsh.Deserialize(&r, data); err != nil {
		return nil, fmt.Errorf("decode tx request: %w", err)
	}
	return &r, nil
}

// Verify 解码交易并校验 Signers 中每个地址都有有效签名
func (r *TxRequest) Verify() (*domain.Transaction, error) {
	tx, err := domain.DecodeTransaction(r.Transaction)
	if err != nil {
		return nil, err
	}

	sigs := make(map[types.Pubkey][]byte, len(r.Signatures))
	for i := range r.Signatures {
		sigs[r.Signatures[i].Signer] = r.Signatures[i].Sig[:]
	}
	for _, signer := range tx.Signers {
		sig, ok := sigs[signer]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSignature, signer)
		}
		if !ed25519.Verify(ed25519.PublicKey(signer[:]), r.Transaction, sig) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, signer)
		}
	}
	return tx, nil
}

// EncodeReceipt 回执的 borsh 编码
func EncodeReceipt(r *runtime.Receipt) ([]byte, error) {
	data, err := borsh.Serialize(*r)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return data, nil
}

func DecodeReceipt(data []byte) (*runtime.Receipt, error) {
	var r runtime.Receipt
	if err := borsh.Deserialize(&r, data); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}
