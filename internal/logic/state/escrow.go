package state

import (
	"encoding/binary"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"
)

// EscrowRecordLen 挂单记录的固定长度
const EscrowRecordLen = 105

// EscrowRecord 布局：
//
// [0]       is_initialized (0/1)
// [1:33]    seller
// [33:65]   custody token account
// [65:97]   asset mint
// [97:105]  expected price (u64 LE)
type EscrowRecord struct {
	IsInitialized  bool
	Seller         types.Pubkey
	CustodyAccount types.Pubkey
	AssetMint      types.Pubkey
	ExpectedPrice  uint64
}

const (
	escrowSellerOff  = 1
	escrowCustodyOff = escrowSellerOff + types.PubkeyLen
	escrowMintOff    = escrowCustodyOff + types.PubkeyLen
	escrowPriceOff   = escrowMintOff + types.PubkeyLen
)

// UnpackEscrowRecord 校验长度与初始化标志字节（必须为 0 或 1）
func UnpackEscrowRecord(src []byte) (EscrowRecord, error) {
	if len(src) != EscrowRecordLen {
		return EscrowRecord{}, domain.ErrInvalidAccountData
	}
	initialized, err := decodeFlag(src[0])
	if err != nil {
		return EscrowRecord{}, err
	}
	r := decodeEscrowFields(src)
	r.IsInitialized = initialized
	return r, nil
}

// UnpackEscrowRecordUnchecked 只校验长度，标志字节非 1 一律视为未初始化。
// 用于调用方准备整体覆盖记录的场景。
func UnpackEscrowRecordUnchecked(src []byte) (EscrowRecord, error) {
	if len(src) != EscrowRecordLen {
		return EscrowRecord{}, domain.ErrInvalidAccountData
	}
	r := decodeEscrowFields(src)
	r.IsInitialized = src[0] == 1
	return r, nil
}

func decodeEscrowFields(src []byte) EscrowRecord {
	var r EscrowRecord
	copy(r.Seller[:], src[escrowSellerOff:escrowCustodyOff])
	copy(r.CustodyAccount[:], src[escrowCustodyOff:escrowMintOff])
	copy(r.AssetMint[:], src[escrowMintOff:escrowPriceOff])
	r.ExpectedPrice = binary.LittleEndian.Uint64(src[escrowPriceOff:EscrowRecordLen])
	return r
}

// Pack 按固定偏移写入全部字段
func (r EscrowRecord) Pack(dst []byte) error {
	if len(dst) != EscrowRecordLen {
		return domain.ErrAccountDataTooSmall
	}
	dst[0] = encodeFlag(r.IsInitialized)
	copy(dst[escrowSellerOff:escrowCustodyOff], r.Seller[:])
	copy(dst[escrowCustodyOff:escrowMintOff], r.CustodyAccount[:])
	copy(dst[escrowMintOff:escrowPriceOff], r.AssetMint[:])
	binary.LittleEndian.PutUint64(dst[escrowPriceOff:EscrowRecordLen], r.ExpectedPrice)
	return nil
}

func (r EscrowRecord) Bytes() []byte {
	buf := make([]byte, EscrowRecordLen)
	_ = r.Pack(buf)
	return buf
}

func decodeFlag(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, domain.ErrInvalidAccountData
	}
}

func encodeFlag(v bool) byte {
	if v {
		return 1
	}
	return 0
}
