package fitty

import (
	"fmt"
	"os"
)

// Source is the outcome of comparing the reference and auxiliary files.
type Source int

const (
	SourceNone Source = iota
	SourceOnlyReference
	SourceOnlyAuxiliary
	SourceReference
	SourceAuxiliary
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceOnlyReference:
		return "only-reference"
	case SourceOnlyAuxiliary:
		return "only-auxiliary"
	case SourceReference:
		return "reference"
	case SourceAuxiliary:
		return "auxiliary"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// PriorityMode decides which file InitFromFile imports.
type PriorityMode int

const (
	PreferNewer PriorityMode = iota
	PreferReference
	PreferAuxiliary
)

func (m PriorityMode) String() string {
	switch m {
	case PreferNewer:
		return "newer"
	case PreferReference:
		return "reference"
	case PreferAuxiliary:
		return "auxiliary"
	default:
		return fmt.Sprintf("PriorityMode(%d)", int(m))
	}
}

// ParsePriorityMode accepts the names printed by PriorityMode.String.
func ParsePriorityMode(s string) (PriorityMode, error) {
	switch s {
	case "", "newer":
		return PreferNewer, nil
	case "reference", "ref":
		return PreferReference, nil
	case "auxiliary", "aux":
		return PreferAuxiliary, nil
	default:
		return PreferNewer, fmt.Errorf("fitty: unknown priority mode %q", s)
	}
}

// SelectSource reports which of the two files exist and, when both do,
// which one is newer. Ties go to the reference file.
func SelectSource(reference, auxiliary string) Source {
	ref, refOK := stat(reference)
	aux, auxOK := stat(auxiliary)

	switch {
	case !refOK && !auxOK:
		return SourceNone
	case refOK && !auxOK:
		return SourceOnlyReference
	case !refOK && auxOK:
		return SourceOnlyAuxiliary
	}
	if aux.ModTime().After(ref.ModTime()) {
		return SourceAuxiliary
	}
	return SourceReference
}

func stat(path string) (os.FileInfo, bool) {
	if path == "" {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}

// resolveSource applies mode to the selection and returns the path to
// import, or false when the mode forbids every available file.
func resolveSource(mode PriorityMode, selected Source, reference, auxiliary string) (string, bool) {
	if selected == SourceNone {
		return "", false
	}
	switch mode {
	case PreferReference:
		if selected == SourceOnlyAuxiliary {
			return "", false
		}
		return reference, true
	case PreferAuxiliary:
		if selected == SourceOnlyReference {
			return "", false
		}
		return auxiliary, true
	default:
		switch selected {
		case SourceAuxiliary, SourceOnlyAuxiliary:
			return auxiliary, true
		default:
			return reference, true
		}
	}
}
