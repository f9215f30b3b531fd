package report

import (
	"encoding/json"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
)

const (
	jsonPrefix = ""
	jsonIndent = "  "
)

type jsonRenderer struct{}

func (jsonRenderer) Extension() string { return "json" }

func (jsonRenderer) Render(doc Document) ([]byte, error) {
	if doc.Modules == nil {
		doc.Modules = []checker.Section{}
	}
	data, err := json.MarshalIndent(doc, jsonPrefix, jsonIndent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
