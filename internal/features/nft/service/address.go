package service

import (
	"encoding/base64"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// decodeNFTAddress extracts the account address stored in a base64-encoded
// boc cell. A nil address with nil error means the contract answered with
// addr_none or an all-zero hash, the sentinel for "nothing minted here".
func decodeNFTAddress(bocB64 string) (*address.Address, error) {
	raw, err := base64.StdEncoding.DecodeString(bocB64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 cell data: %w", err)
	}

	c, err := cell.FromBOC(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid boc: %w", err)
	}

	addr, err := c.BeginParse().LoadAddr()
	if err != nil {
		return nil, fmt.Errorf("no address in cell: %w", err)
	}

	if addr.Type() == address.NoneAddress || isZeroHash(addr.Data()) {
		return nil, nil
	}
	return addr, nil
}

func isZeroHash(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
