package common

import (
	"bytes"
	"github.com/go-errors/errors"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/minvws/base45-go/eubase45"
	"io"
	"strings"
	"unicode"
)

const (
	QR_PREFIX       = "HC1:"
	BASE45_ALPHABET = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
)

// StripPrefix trims trailing whitespace and removes the HC1: context marker
func StripPrefix(qr string) (string, error) {
	qr = strings.TrimRightFunc(qr, unicode.IsSpace)

	proofBase45, ok := strings.CutPrefix(qr, QR_PREFIX)
	if !ok {
		err := errors.Errorf("QR is not prefixed as a EU Health Certificate (expected %s)", QR_PREFIX)
		return "", newFormatError(KindMissingPrefix, "", err)
	}

	return proofBase45, nil
}

func DecodeBase45(proofBase45 string) ([]byte, error) {
	// The alphabet and group length are checked up front, so the offending position can be reported
	for i, c := range proofBase45 {
		if !strings.ContainsRune(BASE45_ALPHABET, c) {
			err := errors.Errorf("Could not Base45 decode character %q at offset %d", c, i)
			return nil, newFormatError(KindInvalidBase45, "", err)
		}
	}

	if len(proofBase45)%3 == 1 {
		err := errors.Errorf("Could not Base45 decode input of length %d, final group has a single character", len(proofBase45))
		return nil, newFormatError(KindInvalidBase45, "", err)
	}

	proofCompressed, err := eubase45.EUBase45Decode([]byte(proofBase45))
	if err != nil {
		return nil, newFormatError(KindInvalidBase45, "", errors.WrapPrefix(err, "Could not Base45 decode QR", 0))
	}

	return proofCompressed, nil
}

// Inflate decompresses a zlib stream of unknown size
func Inflate(proofCompressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(proofCompressed))
	if err != nil {
		return nil, newFormatError(KindDecompressionFailed, "", errors.WrapPrefix(err, "Could not create zlib reader", 0))
	}
	defer zr.Close()

	proofCbor, err := io.ReadAll(zr)
	if err != nil {
		return nil, newFormatError(KindDecompressionFailed, "", errors.WrapPrefix(err, "Could not decompress QR", 0))
	}

	return proofCbor, nil
}

// EncodeQR is the inverse of the first three decode stages: zlib compress, Base45 encode and prefix
func EncodeQR(proofCbor []byte) (string, error) {
	var proofCompressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&proofCompressed, flate.BestCompression)
	if err != nil {
		return "", errors.WrapPrefix(err, "Could not create zlib writer", 0)
	}

	_, err = zw.Write(proofCbor)
	if err != nil {
		return "", errors.WrapPrefix(err, "Could not write to zlib writer", 0)
	}

	err = zw.Close()
	if err != nil {
		return "", errors.WrapPrefix(err, "Could not close zlib writer", 0)
	}

	proofBase45 := eubase45.EUBase45Encode(proofCompressed.Bytes())

	return QR_PREFIX + string(proofBase45), nil
}

func HasEUPrefix(qr string) bool {
	_, err := StripPrefix(qr)
	return err == nil
}
