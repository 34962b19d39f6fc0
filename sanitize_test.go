// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"strings"
	"testing"
)

func TestSanitizePathSegment(t *testing.T) {
	t.Parallel()

	longDerivedDataCacheKey := "DDC_" + strings.Repeat("a1b2c3d4", 50)
	gotLong, err := sanitizePathSegment(longDerivedDataCacheKey)
	if err != nil {
		t.Fatalf("sanitizePathSegment(long): %v", err)
	}
	if len(gotLong) > maxSanitizedSegmentLen {
		t.Fatalf("len(long)=%d, want <= %d", len(gotLong), maxSanitizedSegmentLen)
	}
	if gotLong == longDerivedDataCacheKey {
		t.Fatal("long segment was not shortened")
	}

	testCases := []struct {
		in   string
		want string
	}{
		{in: "CON.uasset", want: "_CON.uasset"},
		{in: "  COM8.uexp  ", want: "_COM8.uexp"},
		{in: "VendorPlugin.{8f14e45f-9ecf-4a5d-9a30-4f6cd3fb7b7d}", want: "VendorPlugin_{8f14e45f-9ecf-4a5d-9a30-4f6cd3fb7b7d}"},
		{in: "Textures:Normal?.uasset", want: "Textures_Normal_.uasset"},
		{in: "Level. ", want: "Level"},
		{in: "aux:", want: "_aux_"},
		{in: "pointer$.uexp", want: "_pointer$.uexp"},
		{in: "CLOCK$.umap", want: "_CLOCK$.umap"},
		{in: "KBD$.ini", want: "_KBD$.ini"},
		{in: "$ADDSTOR.bin", want: "_$ADDSTOR.bin"},
		{in: "82164A:", want: "_82164A_"},
		{in: "Log\x1b[31mError.txt", want: "Log_[31mError.txt"},
		{in: "Texture0m.uasset", want: "Texture0m.uasset"},
		{in: "Mesh\x7fName.uasset", want: "Mesh_Name.uasset"},
		{in: "Asset‏Name.uasset", want: "Asset_Name.uasset"},
	}

	for _, tc := range testCases {
		got, err := sanitizePathSegment(tc.in)
		if err != nil {
			t.Fatalf("sanitizePathSegment(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("sanitizePathSegment(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsReservedDeviceName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		want bool
	}{
		{name: "con", want: true},
		{name: "con.uasset", want: true},
		{name: "AUX:", want: true},
		{name: "CLOCK$", want: true},
		{name: "pointer$.uexp", want: true},
		{name: "leveldata.uasset", want: false},
		{name: "_con.uasset", want: false},
	}

	for _, tc := range testCases {
		got := isReservedDeviceName(tc.name)
		if got != tc.want {
			t.Fatalf("isReservedDeviceName(%q)=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSanitizeFileEntryPathsCollision(t *testing.T) {
	t.Parallel()

	// A PAK built from a case-insensitive cook step can declare two entries
	// that only differ by case; on a case-sensitive extraction target those
	// are distinct files, but sanitizeFileEntryPaths treats them as a
	// collision deliberately so a later case-insensitive re-read of the
	// extracted tree never silently merges them either.
	entries := []FileEntry{
		{Path: "Texture.uasset"},
		{Path: "TEXTURE.uasset"},
	}

	got, err := sanitizeFileEntryPaths(entries)
	if err != nil {
		t.Fatalf("sanitizeFileEntryPaths: %v", err)
	}
	if got[0].Path != "Texture.uasset" {
		t.Fatalf("got[0]=%q, want Texture.uasset", got[0].Path)
	}
	if got[1].Path != "TEXTURE~2.uasset" {
		t.Fatalf("got[1]=%q, want TEXTURE~2.uasset", got[1].Path)
	}
}

func TestSanitizeFileEntryPathsMangledPaths(t *testing.T) {
	t.Parallel()

	entries := []FileEntry{
		{Path: `Content\Movies\intro.bk2`},
		{Path: `..\escape.pak`},
		{Path: `Plugins\VendorPlugin.{8f14e45f-9ecf-4a5d-9a30-4f6cd3fb7b7d}\Content\CON.uasset`},
	}

	got, err := sanitizeFileEntryPaths(entries)
	if err != nil {
		t.Fatalf("sanitizeFileEntryPaths: %v", err)
	}

	if got[0].Path != "Content/Movies/intro.bk2" {
		t.Fatalf("got[0]=%q, want Content/Movies/intro.bk2", got[0].Path)
	}

	if got[1].Path != "_/escape.pak" {
		t.Fatalf("got[1]=%q, want _/escape.pak", got[1].Path)
	}

	want := "Plugins/VendorPlugin_{8f14e45f-9ecf-4a5d-9a30-4f6cd3fb7b7d}/Content/_CON.uasset"
	if got[2].Path != want {
		t.Fatalf("got[2]=%q, want %q", got[2].Path, want)
	}
}

func TestSanitizePathEmpty(t *testing.T) {
	t.Parallel()

	got, err := SanitizePath("  ")
	if err != nil {
		t.Fatalf("SanitizePath: %v", err)
	}
	if got != "" {
		t.Fatalf("SanitizePath(blank)=%q, want empty", got)
	}
}
