// Package params holds the hardfork configuration and protocol gas
// constants shared across the interpreter, mirroring go-ethereum's params
// package (ChainConfig, Rules, the activation-block/time fields used by
// evm.chainRules.IsXxx throughout core/vm).
package params

import "math/big"

// Hardfork identifies a named protocol version. Hardforks are totally
// ordered; a later hardfork implies every earlier one's rules unless a
// specific EIP was reverted (none are, in the mainnet history modeled here).
type Hardfork int

const (
	Frontier Hardfork = iota
	Homestead
	TangerineWhistle // EIP-150
	SpuriousDragon   // EIP-158/161
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin   // EIP-2929/2930
	London   // EIP-1559/3529/3541/3860
	Merge    // Paris / TheMerge, PREVRANDAO
	Shanghai // EIP-3855 PUSH0, EIP-3651
	Cancun   // EIP-1153/4844/5656/6780
)

var hardforkNames = map[Hardfork]string{
	Frontier: "frontier", Homestead: "homestead", TangerineWhistle: "tangerineWhistle",
	SpuriousDragon: "spuriousDragon", Byzantium: "byzantium", Constantinople: "constantinople",
	Petersburg: "petersburg", Istanbul: "istanbul", Berlin: "berlin", London: "london",
	Merge: "merge", Shanghai: "shanghai", Cancun: "cancun",
}

func (h Hardfork) String() string {
	if s, ok := hardforkNames[h]; ok {
		return s
	}
	return "unknown"
}

// ChainConfig carries the chain identity and the hardfork selected for this
// execution. Unlike go-ethereum's block/time-activated ChainConfig, the
// suspendable core takes a single resolved Hardfork directly from the call
// descriptor (spec §6's "hardfork tag"), since the caller — not the core —
// owns block-header construction and fork-schedule resolution.
type ChainConfig struct {
	ChainID  *big.Int
	Hardfork Hardfork
}

// Rules is the boolean flattening of ChainConfig.Hardfork used pervasively
// by the interpreter and gas table, named IsXxx after the corresponding EIP
// range exactly as evm.chainRules.IsXxx is used throughout the teacher's
// core/vm package.
type Rules struct {
	ChainID                                           *big.Int
	IsHomestead, IsEIP150, IsEIP158                    bool
	IsByzantium, IsConstantinople, IsPetersburg        bool
	IsIstanbul                                         bool
	IsBerlin, IsEIP2929, IsEIP2200                     bool
	IsLondon, IsEIP3529, IsEIP3541, IsEIP3860          bool
	IsMerge                                            bool
	IsShanghai, IsEIP3855                              bool
	IsCancun, IsEIP1153, IsEIP4844, IsEIP5656, IsEIP6780 bool
}

// Rules flattens cfg.Hardfork into the boolean set the interpreter consults.
func (c *ChainConfig) Rules() Rules {
	hf := c.Hardfork
	r := Rules{ChainID: c.ChainID}
	r.IsHomestead = hf >= Homestead
	r.IsEIP150 = hf >= TangerineWhistle
	r.IsEIP158 = hf >= SpuriousDragon
	r.IsByzantium = hf >= Byzantium
	r.IsConstantinople = hf >= Constantinople
	r.IsPetersburg = hf >= Petersburg
	r.IsIstanbul = hf >= Istanbul
	r.IsBerlin = hf >= Berlin
	r.IsEIP2929 = hf >= Berlin
	r.IsEIP2200 = hf >= Istanbul
	r.IsLondon = hf >= London
	r.IsEIP3529 = hf >= London
	r.IsEIP3541 = hf >= London
	r.IsEIP3860 = hf >= London
	r.IsMerge = hf >= Merge
	r.IsShanghai = hf >= Shanghai
	r.IsEIP3855 = hf >= Shanghai
	r.IsCancun = hf >= Cancun
	r.IsEIP1153 = hf >= Cancun
	r.IsEIP4844 = hf >= Cancun
	r.IsEIP5656 = hf >= Cancun
	r.IsEIP6780 = hf >= Cancun
	return r
}

// MainnetChainConfig is a convenience default: Cancun rules, chain id 1.
func MainnetChainConfig() *ChainConfig {
	return &ChainConfig{ChainID: big.NewInt(1), Hardfork: Cancun}
}
