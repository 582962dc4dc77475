// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package signalstore tracks native signal registrations by (owner, object, event).
// There is at most one live registration per key.
package signalstore

import (
	"fmt"
	"log"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/wavetermdev/nativetree/pkg/native"
)

type entryKey struct {
	Owner  string
	Handle native.Handle
	Event  string
}

type Entry struct {
	Owner     string
	Object    native.Object
	Event     string
	HandlerId native.HandlerId
	Blockable bool
	Blocked   bool
}

type Options struct {
	// NonBlockable registrations keep firing while their owner is blocked.
	NonBlockable bool
}

type Store struct {
	entries *orderedmap.OrderedMap[entryKey, *Entry]
	// Wrap, if set, decorates every handler before it is connected.
	Wrap func(owner string, event string, handler native.SignalHandler) native.SignalHandler
}

func MakeStore() *Store {
	return &Store{entries: orderedmap.New[entryKey, *Entry]()}
}

// Set replaces the registration for the key. A nil handler only disconnects.
// The previous registration is always released before connecting, so a failed
// connect leaves no registration behind.
func (s *Store) Set(owner string, obj native.Object, event string, handler native.SignalHandler, opts *Options) error {
	if obj == nil {
		return fmt.Errorf("signal %q: nil native object", event)
	}
	key := entryKey{Owner: owner, Handle: obj.Handle(), Event: event}
	if old, ok := s.entries.Get(key); ok {
		old.Object.Disconnect(old.HandlerId)
		s.entries.Delete(key)
	}
	if handler == nil {
		return nil
	}
	if s.Wrap != nil {
		handler = s.Wrap(owner, event, handler)
	}
	handlerId, err := obj.Connect(event, handler)
	if err != nil {
		return fmt.Errorf("connecting %s::%s: %w", obj.ClassName(), event, err)
	}
	entry := &Entry{
		Owner:     owner,
		Object:    obj,
		Event:     event,
		HandlerId: handlerId,
		Blockable: opts == nil || !opts.NonBlockable,
	}
	s.entries.Set(key, entry)
	return nil
}

func (s *Store) Get(owner string, obj native.Object, event string) *Entry {
	if obj == nil {
		return nil
	}
	entry, _ := s.entries.Get(entryKey{Owner: owner, Handle: obj.Handle(), Event: event})
	return entry
}

// Clear disconnects every registration of owner and returns how many were released.
func (s *Store) Clear(owner string) int {
	var keys []entryKey
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key.Owner == owner {
			keys = append(keys, pair.Key)
		}
	}
	for _, key := range keys {
		entry, _ := s.entries.Delete(key)
		if entry != nil {
			entry.Object.Disconnect(entry.HandlerId)
		}
	}
	if len(keys) > 0 {
		log.Printf("[signalstore] released %d handler(s) for %s\n", len(keys), owner)
	}
	return len(keys)
}

// Count returns the number of live registrations for owner.
func (s *Store) Count(owner string) int {
	count := 0
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key.Owner == owner {
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	return s.entries.Len()
}

// Block suppresses the blockable registrations of owner until Unblock.
func (s *Store) Block(owner string) {
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		entry := pair.Value
		if entry.Owner != owner || !entry.Blockable || entry.Blocked {
			continue
		}
		entry.Object.BlockHandler(entry.HandlerId)
		entry.Blocked = true
	}
}

func (s *Store) Unblock(owner string) {
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		entry := pair.Value
		if entry.Owner != owner || !entry.Blocked {
			continue
		}
		entry.Object.UnblockHandler(entry.HandlerId)
		entry.Blocked = false
	}
}
