package service

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func addressCellB64(t *testing.T, addr *address.Address) string {
	t.Helper()
	c := cell.BeginCell().MustStoreAddr(addr).EndCell()
	return base64.StdEncoding.EncodeToString(c.ToBOC())
}

func TestDecodeNFTAddress(t *testing.T) {
	hash := bytes.Repeat([]byte{0xAB}, 32)
	original := address.NewAddress(0, 0, hash)

	addr, err := decodeNFTAddress(addressCellB64(t, original))
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, hash, addr.Data())
	assert.Equal(t, original.String(), addr.String())
}

func TestDecodeNFTAddressMasterchain(t *testing.T) {
	hash := bytes.Repeat([]byte{0x01}, 32)
	original := address.NewAddress(0, 255, hash) // workchain -1

	addr, err := decodeNFTAddress(addressCellB64(t, original))
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, int32(-1), addr.Workchain())
	assert.Equal(t, original.String(), addr.String())
}

func TestDecodeNFTAddressZeroHashIsAbsent(t *testing.T) {
	zero := address.NewAddress(0, 0, make([]byte, 32))

	addr, err := decodeNFTAddress(addressCellB64(t, zero))
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestDecodeNFTAddressNoneIsAbsent(t *testing.T) {
	addr, err := decodeNFTAddress(addressCellB64(t, nil))
	require.NoError(t, err)
	assert.Nil(t, addr)
}

func TestDecodeNFTAddressBadInput(t *testing.T) {
	_, err := decodeNFTAddress("not-base64!!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base64")

	_, err = decodeNFTAddress(base64.StdEncoding.EncodeToString([]byte("junk")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid boc")

	empty := cell.BeginCell().EndCell()
	_, err = decodeNFTAddress(base64.StdEncoding.EncodeToString(empty.ToBOC()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no address in cell")
}
