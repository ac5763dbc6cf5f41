package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/supervisor.txt
	supervisorRaw string

	//go:embed template/advisory.txt
	advisoryRaw string

	//go:embed template/logistics.txt
	logisticsRaw string

	//go:embed template/sales.txt
	salesRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Supervisor string
	Advisory   string
	Logistics  string
	Sales      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to
// call concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Supervisor: strings.TrimSpace(supervisorRaw),
		Advisory:   strings.TrimSpace(advisoryRaw),
		Logistics:  strings.TrimSpace(logisticsRaw),
		Sales:      strings.TrimSpace(salesRaw),
	}
}
