package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Токенизатор YAML
	YamlInfo        Code = 1000
	YamlSyntax      Code = 1001
	YamlUnsupported Code = 1002

	// Структурные
	StrInfo               Code = 2000
	StrMismatchedEnd      Code = 2001
	StrExpectedMapping    Code = 2002
	StrExpectedSequence   Code = 2003
	StrExpectedScalar     Code = 2004
	StrDuplicateJob       Code = 2005
	StrDuplicateKey       Code = 2006
	StrUnterminated       Code = 2007
	StrExtraDocument      Code = 2008
	StrEmptyDocument      Code = 2009
	StrBadExpression      Code = 2010
	StrUnclosedExpression Code = 2011
	StrNestedExpression   Code = 2012

	// Семантические
	SemInfo                Code = 3000
	SemUnknownJob          Code = 3001
	SemDependencyCycle     Code = 3002
	SemSelfDependency      Code = 3003
	SemUnknownKey          Code = 3004
	SemMissingKey          Code = 3005
	SemStepUsesRun         Code = 3006
	SemUnknownEvent        Code = 3007
	SemUnknownContext      Code = 3008
	SemUnknownFunction     Code = 3009
	SemInvalidNeedsContext Code = 3010
	SemInvalidStepsContext Code = 3011
	SemBadUses             Code = 3012
	SemUnpinnedAction      Code = 3013
	SemOutdatedAction      Code = 3014
	SemMissingInput        Code = 3015
	SemUnknownInput        Code = 3016
	SemUnknownOutput       Code = 3017
	SemMissingRunsOn       Code = 3018

	// Внешние источники данных
	NetInfo                Code = 4000
	NetMetadataUnavailable Code = 4001

	// Внутренние сбои правил
	IntInfo       Code = 5000
	IntRuleFailed Code = 5001

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001

	// Ввод-вывод
	IOInfo           Code = 7000
	IOLoadFileError  Code = 7001
	IOWriteFileError Code = 7002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		YamlInfo:               "YAML information",
		YamlSyntax:             "YAML syntax error",
		YamlUnsupported:        "Unsupported YAML construct",
		StrInfo:                "Structure information",
		StrMismatchedEnd:       "Mismatched end of block",
		StrExpectedMapping:     "Expected a mapping",
		StrExpectedSequence:    "Expected a sequence",
		StrExpectedScalar:      "Expected a scalar",
		StrDuplicateJob:        "Duplicate job id",
		StrDuplicateKey:        "Duplicate key",
		StrUnterminated:        "Unterminated block",
		StrExtraDocument:       "Extra YAML document",
		StrEmptyDocument:       "Empty workflow document",
		StrBadExpression:       "Malformed expression",
		StrUnclosedExpression:  "Unclosed expression",
		StrNestedExpression:    "Nested expression",
		SemInfo:                "Semantic information",
		SemUnknownJob:          "Unknown job reference",
		SemDependencyCycle:     "Circular job dependency",
		SemSelfDependency:      "Job depends on itself",
		SemUnknownKey:          "Unknown key",
		SemMissingKey:          "Missing required key",
		SemStepUsesRun:         "Step must have exactly one of uses or run",
		SemUnknownEvent:        "Unknown trigger event",
		SemUnknownContext:      "Unknown context reference",
		SemUnknownFunction:     "Unknown expression function",
		SemInvalidNeedsContext: "Invalid needs context reference",
		SemInvalidStepsContext: "Invalid steps context reference",
		SemBadUses:             "Malformed uses reference",
		SemUnpinnedAction:      "Action is not pinned to a version",
		SemOutdatedAction:      "Action version is outdated",
		SemMissingInput:        "Missing required action input",
		SemUnknownInput:        "Unknown action input",
		SemUnknownOutput:       "Unknown action output",
		SemMissingRunsOn:       "Job has no runner",
		NetInfo:                "Network information",
		NetMetadataUnavailable: "Action metadata unavailable",
		IntInfo:                "Internal information",
		IntRuleFailed:          "Rule failed unexpectedly",
		ObsInfo:                "Observability information",
		ObsTimings:             "Timings",
		IOInfo:                 "I/O information",
		IOLoadFileError:        "Failed to load file",
		IOWriteFileError:       "Failed to write file",
	}
)

func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("YML%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("NET%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("INT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
