package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
)

// Shown as the hidden word when the host has toggled every category off.
const noCategoryWord = "Sélectionnez une catégorie!"

//go:embed dictionary.json
var embeddedDictionary []byte

// Dictionary maps category names to their word lists. It is read-only
// after startup and shared across all rooms without locking.
type Dictionary struct {
	words map[string][]string
}

// loadDictionary parses the embedded word list, or the JSON file at path
// when one is provided via --dictionary.
func loadDictionary(path string) (*Dictionary, error) {
	data := embeddedDictionary

	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading dictionary: %w", err)
		}
	}

	words := make(map[string][]string)
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}

	for cat, list := range words {
		if len(list) == 0 {
			return nil, errors.New("dictionary category " + cat + " is empty")
		}
	}
	if len(words) == 0 {
		return nil, errors.New("dictionary has no categories")
	}

	return &Dictionary{words: words}, nil
}

func (d *Dictionary) Categories() []string {
	cats := make([]string, 0, len(d.words))
	for cat := range d.words {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// RandomWord draws uniformly among the given categories, then uniformly
// among that category's words. Unknown categories are skipped; repeats
// across draws are possible.
func (d *Dictionary) RandomWord(categories []string) string {
	known := make([]string, 0, len(categories))
	for _, cat := range categories {
		if len(d.words[cat]) > 0 {
			known = append(known, cat)
		}
	}
	if len(known) == 0 {
		return noCategoryWord
	}

	words := d.words[known[rand.Intn(len(known))]]

	return words[rand.Intn(len(words))]
}

func (d *Dictionary) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.words)
}
