package game

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Houses lists the selectable houses in display order.
var Houses = []string{"gryffindor", "hufflepuff", "ravenclaw", "slytherin"}

// ParseHouse normalizes a house name and checks that it is one of Houses.
func ParseHouse(name string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(name))
	if !slices.Contains(Houses, h) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHouse, name)
	}
	return h, nil
}

// HouseDisplayName returns the capitalised house name, or a prompt when no house is
// selected yet.
func HouseDisplayName(house string) string {
	if house == "" {
		return "Select your house first!"
	}
	return cases.Title(language.English).String(house)
}
