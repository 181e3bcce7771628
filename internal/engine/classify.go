package engine

import (
	"strings"

	"github.com/samber/lo"
)

// Keyword tables for the classifier. Matching is plain substring containment
// on the lower-cased instruction, so "nav" also fires on "canvas".
var (
	navigationKeywords = []string{"navigation", "nav", "menu"}
	themeKeywords      = []string{"blue", "theme", "learnages"}
	tableKeywords      = []string{"table", "convert to html table", "bilingual table"}
)

// OperationSet holds the operations an instruction asked for.
type OperationSet struct {
	AddNavigation  bool `json:"add_navigation"`
	ApplyTheme     bool `json:"apply_theme"`
	ConvertToTable bool `json:"convert_to_table"`
	WrapParagraphs bool `json:"wrap_paragraphs"`
}

// Classify maps a free-text instruction to an OperationSet. Several flags
// may be set at once; nothing recognised yields the zero value.
func Classify(instruction string) OperationSet {
	inst := strings.ToLower(instruction)
	contains := func(kw string) bool { return strings.Contains(inst, kw) }

	return OperationSet{
		AddNavigation:  lo.SomeBy(navigationKeywords, contains),
		ApplyTheme:     lo.SomeBy(themeKeywords, contains),
		ConvertToTable: lo.SomeBy(tableKeywords, contains),
		WrapParagraphs: contains("wrap") && contains("<p"),
	}
}

// Any reports whether at least one operation is set.
func (o OperationSet) Any() bool {
	return o.AddNavigation || o.ApplyTheme || o.ConvertToTable || o.WrapParagraphs
}

// Names lists the set operations in a fixed order, for logs and API replies.
func (o OperationSet) Names() []string {
	names := []string{}
	if o.AddNavigation {
		names = append(names, "navigation")
	}
	if o.ApplyTheme {
		names = append(names, "theme")
	}
	if o.ConvertToTable {
		names = append(names, "table")
	}
	if o.WrapParagraphs {
		names = append(names, "paragraphs")
	}
	return names
}
