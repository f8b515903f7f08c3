package icc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

type languageCountry struct {
	language [2]byte
	country  [2]byte
}

func (lc languageCountry) String() string {
	return fmt.Sprintf("%c%c_%c%c", lc.language[0], lc.language[1], lc.country[0], lc.country[1])
}

var english_us = languageCountry{[2]byte{'e', 'n'}, [2]byte{'U', 'S'}}

type localizedStrings struct {
	order   []languageCountry
	entries map[languageCountry]string
}

// best returns the en_US string if present, otherwise any English string,
// otherwise the first record.
func (l localizedStrings) best() string {
	if s, ok := l.entries[english_us]; ok {
		return s
	}
	for _, lc := range l.order {
		if lc.language == english_us.language {
			return l.entries[lc]
		}
	}
	if len(l.order) > 0 {
		return l.entries[l.order[0]]
	}
	return ""
}

func decode_utf16be(raw []byte) (string, error) {
	ans, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(ans), "\x00"), nil
}

// section 10.15 (multiLocalizedUnicodeType) in ICC.1-2022-05.pdf
func parse_mluc(sig Signature, t tag) (ans localizedStrings, err error) {
	data := t.data
	ans.entries = make(map[languageCountry]string)
	var h struct {
		Sig, Reserved, RecordCount, RecordSize uint32
	}
	if _, err = binary.Decode(data, binary.BigEndian, &h); err != nil {
		return ans, truncated(sig, t.offset)
	}
	if h.RecordSize < 12 {
		return ans, &InvalidProfileError{Offset: t.offset + 12, Reason: fmt.Sprintf("mluc record size too small: %d", h.RecordSize)}
	}
	type record_header struct {
		Language, Country          [2]byte
		StringLength, StringOffset uint32
	}
	var rh record_header
	for i := range uint64(h.RecordCount) {
		pos := 16 + i*uint64(h.RecordSize)
		if pos+12 > uint64(len(data)) {
			return ans, truncated(sig, t.offset)
		}
		if _, err = binary.Decode(data[pos:], binary.BigEndian, &rh); err != nil {
			return ans, truncated(sig, t.offset)
		}
		if uint64(rh.StringOffset)+uint64(rh.StringLength) > uint64(len(data)) {
			return ans, &InvalidProfileError{Offset: t.offset + int(pos), Reason: "mluc record exceeds tag data length"}
		}
		text, derr := decode_utf16be(data[rh.StringOffset : rh.StringOffset+rh.StringLength])
		if derr != nil {
			return ans, fmt.Errorf("failed to decode the %s string of the %s tag: %w", languageCountry{rh.Language, rh.Country}, sig, derr)
		}
		lc := languageCountry{rh.Language, rh.Country}
		if _, exists := ans.entries[lc]; !exists {
			ans.order = append(ans.order, lc)
		}
		ans.entries[lc] = text
	}
	return ans, nil
}

// section 6.5.17 (textDescriptionType) in ICC.1:2001-04, only the ASCII part is used
func parse_text_description(sig Signature, t tag) (string, error) {
	data := t.data
	if len(data) < 12 {
		return "", truncated(sig, t.offset)
	}
	count := uint64(binary.BigEndian.Uint32(data[8:12]))
	if 12+count > uint64(len(data)) {
		return "", truncated(sig, t.offset)
	}
	raw := data[12 : 12+count]
	if idx := bytes.IndexByte(raw, 0); idx > -1 {
		raw = raw[:idx]
	}
	return string(raw), nil
}

func decode_description(sig Signature, t tag) (string, error) {
	switch typ := t.Type(); typ {
	case DescSignature:
		return parse_text_description(sig, t)
	case MultiLocalisedUnicodeSignature:
		l, err := parse_mluc(sig, t)
		if err != nil {
			return "", err
		}
		return l.best(), nil
	default:
		return "", &UnsupportedTagTypeError{Tag: sig, Type: typ}
	}
}
