package grouper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstracker/internal/domain"
	"docstracker/internal/grouper"
)

func entry(folder, stem string, doc domain.DocType, tokens domain.Tokens) domain.FileEntry {
	if tokens == nil {
		tokens = domain.Tokens{}
	}
	return domain.FileEntry{Folder: folder, Name: stem + ".pdf", Stem: stem, Ext: ".pdf", DocType: doc, Tokens: tokens}
}

func names(files []domain.FileEntry) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Folder + "/" + f.Stem
	}
	return out
}

func TestByDeclaration(t *testing.T) {
	entries := []domain.FileEntry{
		entry("INV001", "INV001_CI", domain.D02, domain.Tokens{"INVOICE": "INV001"}),
		entry("INV001", "INV001_TK_305512345678", domain.D01, domain.Tokens{"CDs": "305512345678"}),
		entry("INV002", "INV002_CI", domain.D02, nil),
		// Declaration filed under another shipment's folder.
		entry("MISC", "INV003_TK_405512345678", domain.D01, domain.Tokens{"CDs": "405512345678"}),
		entry("MISC", "notes", domain.DocUnknown, nil),
		entry("INV003", "INV003_CI", domain.D02, nil),
	}
	records := []domain.DeclarationRecord{
		{Key: "305512345678", Type: "A11", Bill: "MSKU1", Invoices: []string{"INV001", "INV002"}},
		{Key: "405512345678", Type: "E31", Invoices: []string{"INV003"}},
		{Key: "999999999999", Type: "A11", Invoices: []string{"INV404"}},
	}

	groups, unlinked := grouper.ByDeclaration(records, entries)
	require.Len(t, groups, 3)

	assert.Equal(t, "305512345678", groups[0].Key)
	assert.Equal(t, "A11", groups[0].Type)
	assert.Equal(t, "MSKU1", groups[0].Bill)
	assert.Equal(t, domain.ModePerDeclaration, groups[0].Mode)
	assert.Equal(t, []string{"INV001/INV001_CI", "INV001/INV001_TK_305512345678", "INV002/INV002_CI"}, names(groups[0].Files))

	assert.Equal(t, []string{"MISC/INV003_TK_405512345678", "INV003/INV003_CI"}, names(groups[1].Files),
		"cross-folder D01 joins by CDs and invoice, in scan order")

	assert.Empty(t, groups[2].Files)
	assert.Equal(t, []string{"MISC"}, unlinked)
}

func TestByDeclaration_D01NeedsInvoiceInStem(t *testing.T) {
	entries := []domain.FileEntry{
		entry("MISC", "TK_305512345678", domain.D01, domain.Tokens{"CDs": "305512345678"}),
	}
	records := []domain.DeclarationRecord{{Key: "305512345678", Invoices: []string{"INV001"}}}

	groups, unlinked := grouper.ByDeclaration(records, entries)
	assert.Empty(t, groups[0].Files)
	assert.Equal(t, []string{"MISC"}, unlinked)
}

func TestByDeclaration_ShortKeyMatchesPrefix(t *testing.T) {
	entries := []domain.FileEntry{
		entry("MISC", "INV001_TK_305512345679", domain.D01, domain.Tokens{"CDs": "305512345679"}),
	}
	records := []domain.DeclarationRecord{{Key: "30551234567", Invoices: []string{"INV001"}}}

	groups, _ := grouper.ByDeclaration(records, entries)
	require.Len(t, groups[0].Files, 1)
}

func TestByDeclaration_NoDuplicateMembership(t *testing.T) {
	d01 := entry("INV001", "INV001_TK_305512345678", domain.D01, domain.Tokens{"CDs": "305512345678"})
	records := []domain.DeclarationRecord{{Key: "305512345678", Invoices: []string{"INV001"}}}

	groups, _ := grouper.ByDeclaration(records, []domain.FileEntry{d01})
	assert.Len(t, groups[0].Files, 1, "linked by folder and by CDs, still added once")
}

func TestByFolder(t *testing.T) {
	entries := []domain.FileEntry{
		entry("INV001", "INV001_FCR_MSKU9", domain.D07, domain.Tokens{"Bill": "MSKU9", "INVOICE": "INV001"}),
		entry("INV001", "INV001_BL_MSKU1", domain.D08, domain.Tokens{"Bill": "MSKU1"}),
		entry("INV001", "INV001_TK_305512345678", domain.D01, domain.Tokens{"CDs": "305512345678", "INVOICE": "INV001A"}),
		entry("INV002", "INV002_FCR_X", domain.D07, domain.Tokens{"Bill": "X"}),
	}

	groups := grouper.ByFolder([]string{"INV001", "INV002", "INV003"}, entries)
	require.Len(t, groups, 3)

	g := groups[0]
	assert.Equal(t, "INV001", g.Key)
	assert.Equal(t, "305512345678", g.CDs)
	assert.Equal(t, "MSKU1", g.Bill, "D08 bill wins over an earlier D07 bill")
	assert.Equal(t, []string{"INV001", "INV001A"}, g.Invoices)
	assert.Empty(t, g.Type)
	assert.Equal(t, domain.ModePerFolder, g.Mode)
	assert.Len(t, g.Files, 3)

	assert.Equal(t, "X", groups[1].Bill, "falls back to any file carrying the token")
	assert.Empty(t, groups[1].CDs)

	assert.Equal(t, "INV003", groups[2].Key)
	assert.Empty(t, groups[2].Files)
	assert.Equal(t, []string{"INV003"}, groups[2].Invoices)
}
