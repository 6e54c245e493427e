package scenario

import "nft-escrow-sol/internal/types"

// addressBook 账户名到地址的映射。
// 未登记的名字：能解析为 base58 公钥则直接使用，否则由 sha256("scenario:"+name) 确定性生成。
type addressBook struct {
	byName map[string]types.Pubkey
}

func newAddressBook() *addressBook {
	return &addressBook{byName: make(map[string]types.Pubkey)}
}

func (b *addressBook) bind(name string, key types.Pubkey) {
	if name == "" {
		return
	}
	b.byName[name] = key
}

func (b *addressBook) resolve(name string) types.Pubkey {
	if key, ok := b.byName[name]; ok {
		return key
	}
	if key, err := types.TryPubkeyFromBase58(name); err == nil {
		return key
	}
	key := types.Pubkey(types.HashBytes([]byte("scenario:" + name)))
	b.bind(name, key)
	return key
}
