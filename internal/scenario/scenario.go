// Package scenario 用 YAML 描述账户与交易序列，在本地运行时上回放并输出结果
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	KindWallet   = "wallet"
	KindMint     = "mint"
	KindToken    = "token"
	KindMetadata = "metadata"
	KindVault    = "vault"

	TxList        = "list"
	TxExchange    = "exchange"
	TxCancel      = "cancel"
	TxAdminUpdate = "admin_update"
)

type Scenario struct {
	Program      ProgramSpec   `yaml:"program"`
	Accounts     []AccountSpec `yaml:"accounts"`
	Transactions []TxSpec      `yaml:"transactions"`
}

// ProgramSpec 地址字段既可以是 base58，也可以是账户名
type ProgramSpec struct {
	ProgramID          string `yaml:"program_id"`
	Admin              string `yaml:"admin"`
	RetainClosedFields bool   `yaml:"retain_closed_fields"`
}

type CreatorSpec struct {
	Address string `yaml:"address"`
	Share   uint8  `yaml:"share"`
}

type AccountSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Lamports uint64 `yaml:"lamports"` // 为 0 时按免租额度填充（wallet 除外）

	// token / mint / metadata
	Mint         string        `yaml:"mint"`
	Owner        string        `yaml:"owner"`
	Amount       uint64        `yaml:"amount"`
	Authority    string        `yaml:"authority"`
	SellerFeeBps uint16        `yaml:"seller_fee_bps"`
	Creators     []CreatorSpec `yaml:"creators"`
}

type TxSpec struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Signers []string `yaml:"signers"` // 为空时使用该类型的默认签名者

	Admin    string   `yaml:"admin"` // admin_update 默认使用 program.admin
	Seller   string   `yaml:"seller"`
	Taker    string   `yaml:"taker"`
	Custody  string   `yaml:"custody"`
	Mint     string   `yaml:"mint"`
	Escrow   string   `yaml:"escrow"`
	Vault    string   `yaml:"vault"`
	Treasury string   `yaml:"treasury"`
	Creators []string `yaml:"creators"`
	Price    uint64   `yaml:"price"`
	Amount   uint64   `yaml:"amount"`
	FeeBps   uint64   `yaml:"fee_bps"`
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Program.Admin == "" {
		return nil, fmt.Errorf("parse scenario: program.admin is required")
	}
	return &sc, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return Parse(data)
}
