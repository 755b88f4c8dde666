//
// Tencent is pleased to support the open source community by making trpc-tool-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-tool-go is licensed under the Apache License Version 2.0.
//
//

// Package encoding detects the text encoding of file contents and converts
// them to UTF-8.
package encoding

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Encoding represents a detected text encoding.
type Encoding string

// Encoding constants.
const (
	EncodingUTF8     Encoding = "UTF-8"
	EncodingGBK      Encoding = "GBK"
	EncodingBig5     Encoding = "Big5"
	EncodingShiftJIS Encoding = "Shift_JIS"
	EncodingEUCKR    Encoding = "EUC-KR"
	// EncodingLatin1 is the fallback: every byte sequence decodes as ISO-8859-1.
	EncodingLatin1 Encoding = "ISO-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detect guesses the encoding of data from its byte patterns. Valid UTF-8
// always wins; otherwise the CJK multi-byte encodings are tried before
// falling back to Latin-1.
func Detect(data []byte) Encoding {
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	switch {
	case isLikelyGBK(data):
		return EncodingGBK
	case isLikelyBig5(data):
		return EncodingBig5
	case isLikelyShiftJIS(data):
		return EncodingShiftJIS
	case isLikelyEUCKR(data):
		return EncodingEUCKR
	default:
		return EncodingLatin1
	}
}

// ToUTF8 returns data as UTF-8 text together with the encoding it was
// decoded from. A UTF-8 byte order mark is dropped.
func ToUTF8(data []byte) (string, Encoding, error) {
	enc := Detect(data)
	if enc == EncodingUTF8 {
		return string(bytes.TrimPrefix(data, utf8BOM)), enc, nil
	}
	text, err := decode(data, enc)
	if err != nil {
		return "", enc, err
	}
	return text, enc, nil
}

func decoderFor(enc Encoding) (encoding.Encoding, error) {
	switch enc {
	case EncodingGBK:
		return simplifiedchinese.GBK, nil
	case EncodingBig5:
		return traditionalchinese.Big5, nil
	case EncodingShiftJIS:
		return japanese.ShiftJIS, nil
	case EncodingEUCKR:
		return korean.EUCKR, nil
	case EncodingLatin1:
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
}

func decode(data []byte, enc Encoding) (string, error) {
	e, err := decoderFor(enc)
	if err != nil {
		return "", err
	}
	converted, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), e.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to convert from %s: %w", enc, err)
	}
	return string(converted), nil
}

// isLikelyGBK requires at least two lead bytes, more than 80% of them
// followed by a valid trail byte.
func isLikelyGBK(data []byte) bool {
	return pairRatio(data, 0x81, 0xFE, func(b byte) bool {
		return (b >= 0x40 && b <= 0x7E) || (b >= 0x80 && b <= 0xFE)
	})
}

func isLikelyBig5(data []byte) bool {
	return pairRatio(data, 0xA1, 0xFE, func(b byte) bool {
		return (b >= 0x40 && b <= 0x7E) || (b >= 0xA1 && b <= 0xFE)
	})
}

func pairRatio(data []byte, leadLo, leadHi byte, trail func(byte) bool) bool {
	valid, total := 0, 0
	for i := 0; i+1 < len(data); i++ {
		if data[i] < leadLo || data[i] > leadHi {
			continue
		}
		total++
		if trail(data[i+1]) {
			valid++
		}
	}
	return total >= 2 && valid >= 2 && float64(valid)/float64(total) > 0.8
}

func isLikelyShiftJIS(data []byte) bool {
	for i := 0; i+1 < len(data); i++ {
		lead, next := data[i], data[i+1]
		if (lead >= 0x81 && lead <= 0x9F) || (lead >= 0xE0 && lead <= 0xEF) {
			if (next >= 0x40 && next <= 0x7E) || (next >= 0x80 && next <= 0xFC) {
				return true
			}
		}
	}
	return false
}

func isLikelyEUCKR(data []byte) bool {
	for i := 0; i+1 < len(data); i++ {
		if data[i] >= 0xA1 && data[i] <= 0xFE && data[i+1] >= 0xA1 && data[i+1] <= 0xFE {
			return true
		}
	}
	return false
}
