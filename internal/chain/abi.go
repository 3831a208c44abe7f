package chain

// DefaultABI covers the entry points the mint client uses.
const DefaultABI = `[
	{"type":"function","name":"MINT_PRICE_SGB","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"MINT_PRICE_CGLD","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getClaimableAmountSGB","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"isPresaleLive","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"mintNFTSGB","stateMutability":"payable","inputs":[{"name":"quantity","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"preMintNFT","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"to","type":"address"}],"outputs":[]},
	{"type":"function","name":"freeMintNFT","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[]},
	{"type":"function","name":"claimRewardsSGB","stateMutability":"nonpayable","inputs":[{"name":"account","type":"address"}],"outputs":[]}
]`
