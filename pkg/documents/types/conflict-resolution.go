package types

import (
	"errors"
	"strings"
)

type ConflictResolution string

const (
	ResolutionDiscard  ConflictResolution = "discard"
	ResolutionKeepMine ConflictResolution = "keep_mine"
	ResolutionSaveBoth ConflictResolution = "save_both"
)

var ErrUnknownResolution = errors.New("unknown conflict resolution")

func ParseConflictResolution(s string) (ConflictResolution, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "discard":
		return ResolutionDiscard, nil
	case "keep_mine", "keepmine":
		return ResolutionKeepMine, nil
	case "save_both", "saveboth":
		return ResolutionSaveBoth, nil
	}
	return "", ErrUnknownResolution
}
