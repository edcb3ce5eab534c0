package portfolio

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"priceboard/internal/asset"
)

// amount decodes any YAML scalar through ParseAmount, so a malformed number
// in a hand-edited file becomes zero instead of an error.
type amount struct{ s string }

func (a *amount) UnmarshalYAML(n *yaml.Node) error {
	a.s = n.Value
	return nil
}

type fileHolding struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Symbol  string `yaml:"symbol"`
	Type    string `yaml:"type"`
	Entry   amount `yaml:"entry"`
	Current amount `yaml:"current"`
	Qty     amount `yaml:"qty"`
}

type fileBook struct {
	Holdings []fileHolding `yaml:"holdings"`
}

// LoadFile reads a YAML holdings file. A missing file yields the default
// book; holdings without an id get a fresh one.
func LoadFile(path string) (*Book, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Book{Holdings: Defaults()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read holdings: %w", err)
	}
	var fb fileBook
	if err := yaml.Unmarshal(b, &fb); err != nil {
		return nil, fmt.Errorf("parse holdings: %w", err)
	}
	book := &Book{Holdings: make([]Holding, 0, len(fb.Holdings))}
	for _, fh := range fb.Holdings {
		h := NewHolding(fh.Name, fh.Symbol, asset.ParseType(fh.Type),
			ParseAmount(fh.Entry.s), ParseAmount(fh.Current.s), ParseAmount(fh.Qty.s))
		if fh.ID != "" {
			h.ID = fh.ID
		}
		book.Holdings = append(book.Holdings, h)
	}
	return book, nil
}

// SaveFile writes the book as YAML.
func SaveFile(path string, book *Book) error {
	fb := fileBook{Holdings: make([]fileHolding, 0, len(book.Holdings))}
	for _, h := range book.Holdings {
		fb.Holdings = append(fb.Holdings, fileHolding{
			ID: h.ID, Name: h.Name, Symbol: h.Symbol, Type: h.Type.String(),
			Entry: amount{h.Entry.String()}, Current: amount{h.Current.String()}, Qty: amount{h.Qty.String()},
		})
	}
	b, err := yaml.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode holdings: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write holdings: %w", err)
	}
	return nil
}

func (a amount) MarshalYAML() (any, error) { return a.s, nil }
