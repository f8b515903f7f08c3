package icc

import (
	"encoding/binary"
	"fmt"
)

const (
	HeaderSize      = 128
	tagEntrySize    = 12
	maxTagCount     = 1024
	deviceClassAt   = 0x0C
	colorSpaceAt    = 0x10
	pcsAt           = 0x14
	fileSignatureAt = 0x24
	tagTableAt      = 0x80
)

type tag struct {
	offset, size int
	data         []byte
}

// type signature of the tag data
func (t tag) Type() Signature {
	if len(t.data) < 4 {
		return 0
	}
	return Signature(binary.BigEndian.Uint32(t.data))
}

type TagTable struct {
	entries map[Signature]tag
	order   []Signature
}

func (t *TagTable) add(sig Signature, offset int, data []byte) {
	if _, exists := t.entries[sig]; !exists {
		t.order = append(t.order, sig)
	}
	t.entries[sig] = tag{offset: offset, size: len(data), data: data}
}

func (t *TagTable) Has(sig Signature) bool {
	_, ok := t.entries[sig]
	return ok
}

func (t *TagTable) get(sig Signature) (tag, bool) {
	ans, ok := t.entries[sig]
	return ans, ok
}

// Location returns the offset and size of the tag in the profile.
func (t *TagTable) Location(sig Signature) (offset, size int, found bool) {
	e, found := t.entries[sig]
	return e.offset, e.size, found
}

// detach drops references to the profile data once decoding is done.
func (t *TagTable) detach() {
	for sig, e := range t.entries {
		e.data = nil
		t.entries[sig] = e
	}
}

// Signatures returns the tag signatures in the order they appear in the tag table.
func (t *TagTable) Signatures() []Signature { return append([]Signature(nil), t.order...) }

func emptyTagTable() TagTable {
	return TagTable{
		entries: make(map[Signature]tag),
	}
}

func parse_tag_table(data []byte) (ans TagTable, err error) {
	ans = emptyTagTable()
	if len(data) < tagTableAt+4 {
		return ans, &InvalidProfileError{Offset: len(data), Reason: "profile too short to contain a tag table"}
	}
	count := int(binary.BigEndian.Uint32(data[tagTableAt:]))
	if count > maxTagCount {
		return ans, &InvalidProfileError{Offset: tagTableAt, Reason: fmt.Sprintf("implausible number of tags: %d", count)}
	}
	pos := tagTableAt + 4
	if len(data) < pos+count*tagEntrySize {
		return ans, &InvalidProfileError{Offset: len(data), Reason: fmt.Sprintf("tag table with %d entries is truncated", count)}
	}
	for range count {
		e := data[pos : pos+tagEntrySize]
		sig := Signature(binary.BigEndian.Uint32(e))
		offset, size := uint64(binary.BigEndian.Uint32(e[4:])), uint64(binary.BigEndian.Uint32(e[8:]))
		if offset+size > uint64(len(data)) {
			return ans, &InvalidProfileError{Offset: pos, Reason: fmt.Sprintf("the %s tag extends past the end of the profile", sig)}
		}
		ans.add(sig, int(offset), data[offset:offset+size])
		pos += tagEntrySize
	}
	return ans, nil
}
