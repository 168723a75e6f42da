// Package filter evaluates decoded messages against the configured
// address and word blacklist.
package filter

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// AddressSet is a set of RIC addresses.
type AddressSet map[string]struct{}

// NewAddressSet builds an AddressSet from a list of addresses.
func NewAddressSet(addresses []string) AddressSet {
	set := make(AddressSet, len(addresses))
	for _, a := range addresses {
		set[a] = struct{}{}
	}
	return set
}

// Contains reports whether the address is in the set.
func (s AddressSet) Contains(address string) bool {
	_, ok := s[address]
	return ok
}

// Blacklist is one complete filtering configuration. It is replaced as a
// whole value on update, never mutated in place.
type Blacklist struct {
	Addresses     AddressSet
	Words         []string
	CaseSensitive bool
}

// NewBlacklist builds a Blacklist from configuration lists.
func NewBlacklist(addresses, words []string, caseSensitive bool) Blacklist {
	return Blacklist{
		Addresses:     NewAddressSet(addresses),
		Words:         append([]string(nil), words...),
		CaseSensitive: caseSensitive,
	}
}

// AddressWordFilter holds the active blacklist snapshot. ShouldBlock always
// sees a complete snapshot, either fully old or fully new, even while a
// concurrent Update replaces it.
type AddressWordFilter struct {
	log    *slog.Logger
	active atomic.Pointer[Blacklist]
}

// New creates a filter with the given initial blacklist. A nil logger
// selects slog.Default.
func New(bl Blacklist, logger *slog.Logger) *AddressWordFilter {
	if logger == nil {
		logger = slog.Default()
	}
	f := &AddressWordFilter{log: logger}
	f.active.Store(&bl)
	f.log.Info("blacklist filter initialized",
		"addresses", len(bl.Addresses),
		"words", len(bl.Words),
		"case_sensitive", bl.CaseSensitive,
	)
	return f
}

// ShouldBlock reports whether a message must be discarded, with a reason
// naming the matched address or word. An address match takes precedence
// over word matches.
func (f *AddressWordFilter) ShouldBlock(address, message string) (bool, string) {
	bl := f.active.Load()

	if bl.Addresses.Contains(address) {
		return true, fmt.Sprintf("blocked address: %s", address)
	}

	if len(bl.Words) > 0 {
		text := message
		if !bl.CaseSensitive {
			text = strings.ToLower(message)
		}
		for _, word := range bl.Words {
			if !bl.CaseSensitive {
				word = strings.ToLower(word)
			}
			if strings.Contains(text, word) {
				return true, fmt.Sprintf("blocked word: %q", word)
			}
		}
	}

	return false, ""
}

// Update atomically swaps in a new blacklist snapshot.
func (f *AddressWordFilter) Update(bl Blacklist) {
	f.active.Store(&bl)
	f.log.Info("blacklist updated",
		"addresses", len(bl.Addresses),
		"words", len(bl.Words),
	)
}
