package languageutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower folds s with Turkish casing rules, so "TİŞÖRT" becomes "tişört"
// and "KIŞLIK" becomes "kışlık". A Caser keeps state, so each call gets
// its own.
func Lower(s string) string {
	return cases.Lower(language.Turkish).String(s)
}
