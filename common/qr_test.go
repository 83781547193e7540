package common

import (
	"bytes"
	"github.com/klauspost/compress/zlib"
	"github.com/minvws/base45-go/eubase45"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestStripPrefix(t *testing.T) {
	tests := map[string]string{
		"HC1:6BFOXN":        "6BFOXN",
		"HC1:6BFOXN\n":      "6BFOXN",
		"HC1:6BFOXN \t\r\n": "6BFOXN",
		"HC1:":              "",
	}

	for in, expected := range tests {
		out, err := StripPrefix(in)
		require.NoError(t, err, in)
		require.Equal(t, expected, out)
	}
}

func TestStripPrefixMissing(t *testing.T) {
	inputs := []string{
		"",
		"HC1",
		"HC2:6BFOXN",
		"hc1:6BFOXN",
		" HC1:6BFOXN",
		"NZCP:/1/2KCEVIQEIVVWK6JNGEASNICZAEP2KALYDZSGSZB2O5SWEOTOPJRXALTDN53GSZBRHEXGQZLBNR2GQLTOPICRUYMBTIFAIGTU",
		"6BFOXN%TS3DH0YOJ58S",
	}

	for _, in := range inputs {
		_, err := StripPrefix(in)
		require.ErrorIs(t, err, ErrMissingPrefix, in)
		require.Equal(t, KindMissingPrefix, KindOf(err))
		require.False(t, HasEUPrefix(in))
	}
}

func TestDecodeBase45(t *testing.T) {
	for _, data := range [][]byte{
		{0x00},
		{0xff, 0xff},
		[]byte("ietf!"),
		[]byte("Hello!!"),
		{0x78, 0xda, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
	} {
		encoded := string(eubase45.EUBase45Encode(data))

		decoded, err := DecodeBase45(encoded)
		require.NoError(t, err)
		require.Equal(t, data, decoded)
	}
}

func TestDecodeBase45InvalidCharacter(t *testing.T) {
	inputs := []string{
		"6bF",
		"6BF!",
		"6BFOX#",
		"6BF\n",
		"6BFÖXN",
	}

	for _, in := range inputs {
		_, err := DecodeBase45(in)
		require.ErrorIs(t, err, ErrInvalidBase45, in)
	}
}

func TestDecodeBase45InvalidLength(t *testing.T) {
	for _, in := range []string{"6", "6BFO", "6BFOXN%"} {
		_, err := DecodeBase45(in)
		require.ErrorIs(t, err, ErrInvalidBase45, in)
		require.Contains(t, err.Error(), "single character")
	}
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestInflate(t *testing.T) {
	small := []byte{0xd2, 0x84, 0x40, 0xa0, 0x41, 0xa0, 0x40}
	large := bytes.Repeat([]byte("EU Digital COVID Certificate "), 10000)

	for _, data := range [][]byte{small, large} {
		inflated, err := Inflate(compress(t, data))
		require.NoError(t, err)
		require.Equal(t, data, inflated)
	}
}

func TestInflateFailures(t *testing.T) {
	compressed := compress(t, bytes.Repeat([]byte("HC1"), 1000))

	badChecksum := append([]byte{}, compressed...)
	badChecksum[len(badChecksum)-1] ^= 0xff

	inputs := map[string][]byte{
		"empty":        {},
		"not zlib":     []byte("not a zlib stream"),
		"truncated":    compressed[:len(compressed)/2],
		"bad checksum": badChecksum,
	}

	for name, in := range inputs {
		_, err := Inflate(in)
		require.ErrorIs(t, err, ErrDecompressionFailed, name)
	}
}

func TestEncodeQR(t *testing.T) {
	data := []byte{0xd2, 0x84, 0x40, 0xa0, 0x41, 0xa0, 0x40}

	qr, err := EncodeQR(data)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(qr, QR_PREFIX))
	require.True(t, HasEUPrefix(qr))

	proofBase45, err := StripPrefix(qr)
	require.NoError(t, err)

	proofCompressed, err := DecodeBase45(proofBase45)
	require.NoError(t, err)

	proofCbor, err := Inflate(proofCompressed)
	require.NoError(t, err)
	require.Equal(t, data, proofCbor)
}
