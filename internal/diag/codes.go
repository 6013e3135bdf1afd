package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo        Code = 1000
	LexUnknownChar Code = 1001
	LexBadArrow    Code = 1002
	LexBadEllipsis Code = 1003

	// Синтаксис паттерна
	SynInfo                 Code = 2000
	SynUnexpectedToken      Code = 2001
	SynMissingName          Code = 2002
	SynBadPatternName       Code = 2003
	SynExpectColon          Code = 2004
	SynExpectToken          Code = 2005
	SynUnknownToken         Code = 2006
	SynEmptyTokenList       Code = 2007
	SynPreMessageToken      Code = 2008
	SynDuplicatePreMessage  Code = 2009
	SynPreMessageAfterStart Code = 2010
	SynBadRole              Code = 2011
	SynSameRole             Code = 2012
	SynDuplicateSeparator   Code = 2013
	SynNoMessages           Code = 2014
	SynHandshakeAfterTransp Code = 2015
	SynTooManyMessages      Code = 2016

	// Причинность и валидность
	SemaInfo                 Code = 3000
	SemaDHPrerequisite       Code = 3001
	SemaDuplicateEphemeral   Code = 3002
	SemaDuplicateStatic      Code = 3003
	SemaDuplicateDH          Code = 3004
	SemaPskUndeclared        Code = 3005
	SemaPskPlacement         Code = 3006
	SemaPskModifierUnused    Code = 3007
	SemaPskWithoutEphemeral  Code = 3008
	SemaDirection            Code = 3009
	SemaOneWayReply          Code = 3010
	SemaWeakStaticEncryption Code = 3011
	SemaNoHandshake          Code = 3012

	// Генерация
	GenInfo              Code = 4000
	GenPrecondition      Code = 4001
	GenSlotMissing       Code = 4002
	GenSlotDuplicate     Code = 4003
	GenMarkerMissing     Code = 4004
	GenSourceMissingDecl Code = 4005

	// Вывод верификатора
	VerInfo           Code = 5000
	VerNoQueries      Code = 5001
	VerUnknownMessage Code = 5002
	VerModelMismatch  Code = 5003

	// Ввод-вывод
	IOInfo      Code = 6000
	IOLoadError Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:    "Unknown error",
	LexInfo:        "Lexical information",
	LexUnknownChar: "Unknown character",
	LexBadArrow:    "Malformed arrow",
	LexBadEllipsis: "Malformed pre-message separator",

	SynInfo:                 "Syntax information",
	SynUnexpectedToken:      "Unexpected token",
	SynMissingName:          "Missing pattern name",
	SynBadPatternName:       "Invalid pattern name",
	SynExpectColon:          "Expected ':'",
	SynExpectToken:          "Expected handshake token",
	SynUnknownToken:         "Unknown handshake token",
	SynEmptyTokenList:       "Empty token list",
	SynPreMessageToken:      "Pre-message may only carry e or s",
	SynDuplicatePreMessage:  "Duplicate pre-message for role",
	SynPreMessageAfterStart: "Pre-message after the first message",
	SynBadRole:              "Unknown role",
	SynSameRole:             "Sender and receiver are the same role",
	SynDuplicateSeparator:   "Duplicate pre-message separator",
	SynNoMessages:           "Pattern has no messages",
	SynHandshakeAfterTransp: "Handshake message after transport message",
	SynTooManyMessages:      "Too many messages",

	SemaInfo:                 "Semantic information",
	SemaDHPrerequisite:       "Key not available for Diffie-Hellman",
	SemaDuplicateEphemeral:   "Ephemeral key sent twice",
	SemaDuplicateStatic:      "Static key sent twice",
	SemaDuplicateDH:          "Diffie-Hellman operation repeated",
	SemaPskUndeclared:        "psk token without psk modifier",
	SemaPskPlacement:         "psk token does not match modifier position",
	SemaPskModifierUnused:    "psk modifier without psk token",
	SemaPskWithoutEphemeral:  "Encryption after psk without ephemeral",
	SemaDirection:            "Messages must alternate direction",
	SemaOneWayReply:          "One-way pattern with responder message",
	SemaWeakStaticEncryption: "Encryption relies on static-only key agreement",
	SemaNoHandshake:          "Pattern has no handshake messages",

	GenInfo:              "Generation information",
	GenPrecondition:      "Generation precondition violated",
	GenSlotMissing:       "Fragment slot not produced",
	GenSlotDuplicate:     "Fragment slot produced twice",
	GenMarkerMissing:     "Skeleton marker missing",
	GenSourceMissingDecl: "Generated source lacks declaration",

	VerInfo:           "Verifier output information",
	VerNoQueries:      "No query results in verifier output",
	VerUnknownMessage: "Query refers to unknown message",
	VerModelMismatch:  "Attacker model mismatch",

	IOInfo:      "I/O information",
	IOLoadError: "Failed to load file",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("VER%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
