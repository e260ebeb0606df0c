package pipeline

import "posclean/internal/util"

// Override replaces a whole size value that the general rules cannot decompose.
type Override interface {
	apply(row Row) Row
}

// SimpleOverride rewrites the size and leaves the note alone.
type SimpleOverride struct {
	Size string
}

// NoteOverride rewrites the size and sets the note.
type NoteOverride struct {
	Size string
	Note string
}

func (o SimpleOverride) apply(row Row) Row {
	row.Size = util.StringPtr(o.Size)
	return row
}

func (o NoteOverride) apply(row Row) Row {
	row.Size = util.StringPtr(o.Size)
	row.Note = util.StringPtr(o.Note)
	return row
}

func DefaultOverrides() map[string]Override {
	return map[string]Override{
		"GAL":        SimpleOverride{Size: "1 GAL"},
		"13 OZ FMLY": NoteOverride{Size: "13 OZ", Note: "FMLY"},
		"45 OZ PET":  NoteOverride{Size: "45 OZ", Note: "PET"},
		"6 LB 11 OZ": SimpleOverride{Size: "107 OZ"},
	}
}

func DefaultUnitSynonyms() map[string]string {
	return map[string]string{
		"OUNCE":   "OZ",
		"OZ.":     "OZ",
		"Z":       "OZ",
		"OZ FMLY": "OZ",
	}
}
