// Package grouper pools indexed files into the groups the rule engine
// evaluates.
package grouper

import (
	"sort"

	"docstracker/internal/domain"
)

// ByDeclaration builds one group per declaration record. A file belongs to a
// declaration when its folder is one of the declaration's invoices, or when
// it is a D01 whose CDs token matches the key and whose stem names one of the
// declaration's invoices. Files keep scan order and appear at most once per
// group. The second return lists folders linked to no declaration, in scan
// order.
func ByDeclaration(records []domain.DeclarationRecord, entries []domain.FileEntry) ([]domain.Group, []string) {
	byFolder := make(map[string][]int)
	var folders []string
	var d01 []int
	for i, e := range entries {
		if _, ok := byFolder[e.Folder]; !ok {
			folders = append(folders, e.Folder)
		}
		byFolder[e.Folder] = append(byFolder[e.Folder], i)
		if e.DocType == domain.D01 {
			d01 = append(d01, i)
		}
	}

	linked := make(map[string]bool)
	groups := make([]domain.Group, 0, len(records))
	for _, rec := range records {
		picked := make(map[int]bool)
		for _, inv := range rec.Invoices {
			if idx, ok := byFolder[inv]; ok {
				linked[inv] = true
				for _, i := range idx {
					picked[i] = true
				}
			}
		}
		for _, i := range d01 {
			e := entries[i]
			cds, ok := e.Tokens.Get(domain.TokenCDs)
			if ok && domain.MatchesCDs(cds, rec.Key) && domain.ContainsAny(e.Stem, rec.Invoices) {
				picked[i] = true
			}
		}

		idx := make([]int, 0, len(picked))
		for i := range picked {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		files := make([]domain.FileEntry, len(idx))
		for n, i := range idx {
			files[n] = entries[i]
		}

		groups = append(groups, domain.Group{
			Key:      rec.Key,
			CDs:      rec.Key,
			Type:     rec.Type,
			Bill:     rec.Bill,
			Invoices: append([]string(nil), rec.Invoices...),
			Files:    files,
			Mode:     domain.ModePerDeclaration,
		})
	}

	var unlinked []string
	for _, f := range folders {
		if !linked[f] {
			unlinked = append(unlinked, f)
		}
	}
	return groups, unlinked
}

// ByFolder builds one group per folder, including empty folders. CDs and
// bill are inferred from the first file carrying the token, looking at D01
// (respectively D08) files before the rest. Invoices are the folder name plus
// any INVOICE tokens, sorted. The declaration type is left empty.
func ByFolder(folders []string, entries []domain.FileEntry) []domain.Group {
	byFolder := make(map[string][]domain.FileEntry, len(folders))
	for _, e := range entries {
		byFolder[e.Folder] = append(byFolder[e.Folder], e)
	}

	groups := make([]domain.Group, 0, len(folders))
	for _, folder := range folders {
		files := byFolder[folder]
		invSet := map[string]bool{folder: true}
		for _, f := range files {
			if inv, ok := f.Tokens.Get(domain.TokenInvoice); ok {
				invSet[inv] = true
			}
		}
		invoices := make([]string, 0, len(invSet))
		for inv := range invSet {
			invoices = append(invoices, inv)
		}
		sort.Strings(invoices)

		groups = append(groups, domain.Group{
			Key:      folder,
			CDs:      firstToken(files, domain.TokenCDs, domain.D01),
			Bill:     firstToken(files, domain.TokenBill, domain.D08),
			Invoices: invoices,
			Files:    files,
			Mode:     domain.ModePerFolder,
		})
	}
	return groups
}

// firstToken returns the first value of token among files of type preferred,
// then among all files.
func firstToken(files []domain.FileEntry, token string, preferred domain.DocType) string {
	for _, f := range files {
		if f.DocType != preferred {
			continue
		}
		if v, ok := f.Tokens.Get(token); ok {
			return v
		}
	}
	for _, f := range files {
		if v, ok := f.Tokens.Get(token); ok {
			return v
		}
	}
	return ""
}
