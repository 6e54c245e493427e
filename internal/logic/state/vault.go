package state

import (
	"encoding/binary"
	"nft-escrow-sol/internal/logic/domain"
	"nft-escrow-sol/internal/types"
)

// PlatformVaultLen 平台费率配置记录的固定长度
const PlatformVaultLen = 41

// PlatformVault 布局：
//
// [0]      is_initialized (0/1)
// [1:33]   treasury
// [33:41]  fee basis points (u64 LE)
type PlatformVault struct {
	IsInitialized  bool
	Treasury       types.Pubkey
	FeeBasisPoints uint64
}

const (
	vaultTreasuryOff = 1
	vaultFeeOff      = vaultTreasuryOff + types.PubkeyLen
)

func UnpackPlatformVault(src []byte) (PlatformVault, error) {
	if len(src) != PlatformVaultLen {
		return PlatformVault{}, domain.ErrInvalidAccountData
	}
	initialized, err := decodeFlag(src[0])
	if err != nil {
		return PlatformVault{}, err
	}
	v := decodeVaultFields(src)
	v.IsInitialized = initialized
	return v, nil
}

func UnpackPlatformVaultUnchecked(src []byte) (PlatformVault, error) {
	if len(src) != PlatformVaultLen {
		return PlatformVault{}, domain.ErrInvalidAccountData
	}
	v := decodeVaultFields(src)
	v.IsInitialized = src[0] == 1
	return v, nil
}

func decodeVaultFields(src []byte) PlatformVault {
	var v PlatformVault
	copy(v.Treasury[:], src[vaultTreasuryOff:vaultFeeOff])
	v.FeeBasisPoints = binary.LittleEndian.Uint64(src[vaultFeeOff:PlatformVaultLen])
	return v
}

func (v PlatformVault) Pack(dst []byte) error {
	if len(dst) != PlatformVaultLen {
		return domain.ErrAccountDataTooSmall
	}
	dst[0] = encodeFlag(v.IsInitialized)
	copy(dst[vaultTreasuryOff:vaultFeeOff], v.Treasury[:])
	binary.LittleEndian.PutUint64(dst[vaultFeeOff:PlatformVaultLen], v.FeeBasisPoints)
	return nil
}

func (v PlatformVault) Bytes() []byte {
	buf := make([]byte, PlatformVaultLen)
	_ = v.Pack(buf)
	return buf
}
