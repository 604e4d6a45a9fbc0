package models

import (
	"fmt"
)

// RoundKind is the closed set of rounds a match can belong to.
type RoundKind int

const (
	RoundUnknown RoundKind = iota
	RoundRobin1
	RoundRobin2
	RoundRobin3
	RoundOf64
	RoundOf32
	RoundOf16
	RoundQuarterfinal
	RoundSemifinal
	RoundFinal
	RoundThirdPlace
	RoundLosers1
	RoundLosers2
	RoundLosersQuarterfinal
	RoundLosersSemifinal
	RoundLosersFinal
	RoundGrandFinal
)

var roundNames = map[RoundKind]string{
	RoundRobin1:             "RR_R1",
	RoundRobin2:             "RR_R2",
	RoundRobin3:             "RR_R3",
	RoundOf64:               "round-of-64",
	RoundOf32:               "round-of-32",
	RoundOf16:               "round-of-16",
	RoundQuarterfinal:       "quarterfinal",
	RoundSemifinal:          "semifinal",
	RoundFinal:              "final",
	RoundThirdPlace:         "third-place",
	RoundLosers1:            "lbr-round-1",
	RoundLosers2:            "lbr-round-2",
	RoundLosersQuarterfinal: "lbr-quarterfinal",
	RoundLosersSemifinal:    "lbr-semifinal",
	RoundLosersFinal:        "lbr-final",
	RoundGrandFinal:         "grand-final",
}

// RoundRobinRounds lists the round-robin rounds in play order.
var RoundRobinRounds = []RoundKind{RoundRobin1, RoundRobin2, RoundRobin3}

// BracketRounds lists every elimination round in canonical order.
var BracketRounds = []RoundKind{
	RoundOf64, RoundOf32, RoundOf16,
	RoundQuarterfinal, RoundSemifinal, RoundFinal, RoundThirdPlace,
	RoundLosers1, RoundLosers2, RoundLosersQuarterfinal, RoundLosersSemifinal, RoundLosersFinal,
	RoundGrandFinal,
}

func (r RoundKind) String() string {
	if name, ok := roundNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRound resolves a round name into its kind.
func ParseRound(s string) (RoundKind, error) {
	for kind, name := range roundNames {
		if name == s {
			return kind, nil
		}
	}
	return RoundUnknown, fmt.Errorf("unknown round %q", s)
}

func (r RoundKind) MarshalText() ([]byte, error) {
	if r == RoundUnknown {
		return []byte{}, nil
	}
	return []byte(r.String()), nil
}

func (r *RoundKind) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = RoundUnknown
		return nil
	}
	kind, err := ParseRound(string(b))
	if err != nil {
		return err
	}
	*r = kind
	return nil
}

// IsRoundRobin reports whether matches of this round feed round-robin counters.
func (r RoundKind) IsRoundRobin() bool {
	switch r {
	case RoundRobin1, RoundRobin2, RoundRobin3:
		return true
	}
	return false
}

// IsLosersBracket reports whether the round belongs to the losers bracket.
func (r RoundKind) IsLosersBracket() bool {
	switch r {
	case RoundLosers1, RoundLosers2, RoundLosersQuarterfinal, RoundLosersSemifinal, RoundLosersFinal:
		return true
	}
	return false
}

// Number is the sort ordinal stored as a match's roundNumber.
func (r RoundKind) Number() int {
	switch r {
	case RoundRobin1:
		return 1
	case RoundRobin2:
		return 2
	case RoundRobin3:
		return 3
	case RoundOf64:
		return 4
	case RoundOf32:
		return 5
	case RoundOf16:
		return 6
	case RoundQuarterfinal:
		return 7
	case RoundSemifinal:
		return 8
	case RoundFinal:
		return 9
	case RoundThirdPlace:
		return 10
	case RoundLosers1:
		return 11
	case RoundLosers2:
		return 12
	case RoundLosersQuarterfinal:
		return 13
	case RoundLosersSemifinal:
		return 14
	case RoundLosersFinal:
		return 15
	case RoundGrandFinal:
		return 16
	}
	return 0
}

// Size is the number of slots a fixed-size winners round holds, 0 when the
// round is not sized by slots.
func (r RoundKind) Size() int {
	switch r {
	case RoundOf64:
		return 64
	case RoundOf32:
		return 32
	case RoundOf16:
		return 16
	case RoundQuarterfinal:
		return 8
	case RoundSemifinal, RoundThirdPlace:
		return 4
	case RoundFinal, RoundGrandFinal:
		return 2
	case RoundRobin1, RoundRobin2, RoundRobin3,
		RoundLosers1, RoundLosers2, RoundLosersQuarterfinal, RoundLosersSemifinal, RoundLosersFinal:
		return 0
	}
	return 0
}

// NextWinnersRound is the winners-bracket round fed by this one.
func (r RoundKind) NextWinnersRound() (RoundKind, bool) {
	switch r {
	case RoundOf64:
		return RoundOf32, true
	case RoundOf32:
		return RoundOf16, true
	case RoundOf16:
		return RoundQuarterfinal, true
	case RoundQuarterfinal:
		return RoundSemifinal, true
	case RoundSemifinal:
		return RoundFinal, true
	}
	return RoundUnknown, false
}

// StatCounter names the bracket counter pair a match of this round updates.
type StatCounter int

const (
	CounterNone StatCounter = iota
	CounterR16
	CounterQF
	CounterSF
	CounterFinals
	CounterLosers
	CounterGrandFinal
)

// Counter maps a bracket round onto its per-round statistics bucket.
func (r RoundKind) Counter() StatCounter {
	switch r {
	case RoundOf64, RoundOf32, RoundOf16:
		return CounterR16
	case RoundQuarterfinal:
		return CounterQF
	case RoundSemifinal:
		return CounterSF
	case RoundFinal:
		return CounterFinals
	case RoundLosers1, RoundLosers2, RoundLosersQuarterfinal, RoundLosersSemifinal, RoundLosersFinal:
		return CounterLosers
	case RoundGrandFinal:
		return CounterGrandFinal
	case RoundRobin1, RoundRobin2, RoundRobin3, RoundThirdPlace:
		return CounterNone
	}
	return CounterNone
}
