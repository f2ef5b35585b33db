// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

// sourceOver composites source over destination.
// Formula: S + D * (1 - Sa)
func sourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addClamp(sr, mulDiv255(dr, invSa)),
		addClamp(sg, mulDiv255(dg, invSa)),
		addClamp(sb, mulDiv255(db, invSa)),
		addClamp(sa, mulDiv255(da, invSa))
}

// plus adds source and destination.
// Formula: min(S + D, 1)
func plus(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return addClamp(sr, dr), addClamp(sg, dg), addClamp(sb, db), addClamp(sa, da)
}

// subtract removes the source color from the destination.
// Alpha follows source-over so a transparent source is a no-op.
func subtract(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	a := addClamp(sa, mulDiv255(da, 255-sa))
	return minByte(subClamp(dr, sr), a), minByte(subClamp(dg, sg), a), minByte(subClamp(db, sb), a), a
}

// destinationIn keeps the destination where the source is opaque.
// Formula: D * Sa
func destinationIn(_, _, _, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return mulDiv255(dr, sa), mulDiv255(dg, sa), mulDiv255(db, sa), mulDiv255(da, sa)
}

// destinationOut keeps the destination where the source is transparent.
// Formula: D * (1 - Sa)
func destinationOut(_, _, _, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return mulDiv255(dr, invSa), mulDiv255(dg, invSa), mulDiv255(db, invSa), mulDiv255(da, invSa)
}

// lumaIn keeps the destination scaled by the source luminance.
// The source is premultiplied, so its alpha is already folded in.
func lumaIn(sr, sg, sb, _, dr, dg, db, da byte) (byte, byte, byte, byte) {
	l := luma(sr, sg, sb)
	return mulDiv255(dr, l), mulDiv255(dg, l), mulDiv255(db, l), mulDiv255(da, l)
}
