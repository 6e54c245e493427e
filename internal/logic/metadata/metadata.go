package metadata

import (
	"fmt"
	"nft-escrow-sol/internal/types"

	"github.com/near/borsh-go"
)

// KeyMetadataV1 Metaplex 账户类型标识
const KeyMetadataV1 uint8 = 4

type Creator struct {
	Address  types.Pubkey
	Verified bool
	Share    uint8 // 百分比
}

type Data struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
}

// Record Metaplex 元数据账户的前缀部分，之后的字段（edition nonce、collection 等）不参与结算，忽略
type Record struct {
	Key                 uint8
	UpdateAuthority     types.Pubkey
	Mint                types.Pubkey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
}

// CreatorShare 结算所需的创作者分成
type CreatorShare struct {
	Address      types.Pubkey
	SharePercent uint8
}

// Decode 解析账户数据，尾部多余字节（账户预留空间）忽略
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := borsh.Deserialize(&r, data); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &r, nil
}

func (r *Record) Encode() ([]byte, error) {
	data, err := borsh.Serialize(*r)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}

// Shares 按元数据中的顺序返回创作者分成，无创作者时返回空
func (r *Record) Shares() []CreatorShare {
	if r.Data.Creators == nil {
		return nil
	}
	creators := *r.Data.Creators
	shares := make([]CreatorShare, 0, len(creators))
	for _, c := range creators {
		shares = append(shares, CreatorShare{Address: c.Address, SharePercent: c.Share})
	}
	return shares
}

// NewRecord 构造最小元数据记录，供测试与场景回放使用
func NewRecord(mint types.Pubkey, sellerFeeBps uint16, shares []CreatorShare) *Record {
	r := &Record{
		Key:  KeyMetadataV1,
		Mint: mint,
		Data: Data{SellerFeeBasisPoints: sellerFeeBps},
	}
	if len(shares) > 0 {
		creators := make([]Creator, 0, len(shares))
		for _, s := range shares {
			creators = append(creators, Creator{Address: s.Address, Verified: true, Share: s.SharePercent})
		}
		r.Data.Creators = &creators
	}
	return r
}
