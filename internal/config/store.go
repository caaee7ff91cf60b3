package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrInvalidKey is returned when a config key is malformed or unknown.
var ErrInvalidKey = errors.New("invalid config key")

// ErrNoConfigFile is returned by Set when there is no file to persist to.
var ErrNoConfigFile = errors.New("no config file in use")

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	if _, err := GetDefault(key); err != nil {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidKey, key)
	}
	return nil
}

// Set changes one key, validates the result and writes it to the config
// file. On validation failure nothing changes. Change callbacks run
// as they do for a file edit.
func (cm *Manager) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if cm.v.ConfigFileUsed() == "" {
		return ErrNoConfigFile
	}

	prev := cm.v.Get(key)
	cm.v.Set(key, value)
	if _, err := cm.load(); err != nil {
		cm.v.Set(key, prev)
		return err
	}
	if err := cm.v.WriteConfig(); err != nil {
		cm.v.Set(key, prev)
		return fmt.Errorf("failed to write config: %w", err)
	}
	cm.reload("set " + key)
	return nil
}

// Entries lists every key with its effective value.
func (cm *Manager) Entries() []Entry {
	defaults := DefaultEntries()
	out := make([]Entry, len(defaults))
	for i, e := range defaults {
		out[i] = Entry{Key: e.Key, Value: cm.v.Get(e.Key), Description: e.Description}
	}
	return out
}
