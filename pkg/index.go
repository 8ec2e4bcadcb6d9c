package mmt

import "strings"

// NSimMax1D is the number of plane occupancy patterns, 2^planes.
func (p *Parameters) NSimMax1D() int {
	return 1 << len(p.Setup)
}

// BoolToIndex packs a per-plane occupancy into an integer, plane i at bit i.
// Entries beyond the number of planes are ignored.
func (p *Parameters) BoolToIndex(track []bool) int {
	index := 0
	for plane, hit := range track {
		if plane >= len(p.Setup) {
			break
		}
		if hit {
			index |= 1 << plane
		}
	}
	return index
}

func (p *Parameters) IndexToBool(index int) []bool {
	code := make([]bool, len(p.Setup))
	for i := range code {
		code[i] = index&(1<<i) != 0
	}
	return code
}

func (p *Parameters) IndexToHitStr(index int) string {
	return BoolToHitStr(p.IndexToBool(index))
}

// BoolToHitStr renders an occupancy as "_ht" followed by one digit per plane.
func BoolToHitStr(track []bool) string {
	return "_" + hitStr(track)
}

func hitStr(track []bool) string {
	var b strings.Builder
	b.WriteString("ht")
	for _, hit := range track {
		if hit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
