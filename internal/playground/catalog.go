// Package playground exposes a catalog of agents and teams over HTTP. Each
// entry gets its own runner; sessions are shared through one store.
package playground

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/agents"
	"github.com/yuribarsotti/agentlab/knowledge"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
	"github.com/yuribarsotti/agentlab/toolkit/finance"
)

// Kinds of catalog entries.
const (
	KindWeb              = "web"
	KindFinance          = "finance"
	KindStockPrice       = "stock_price"
	KindKnowledge        = "knowledge"
	KindTripAdvisor      = "trip_advisor"
	KindClinic           = "clinic"
	KindCacheWorkflow    = "cache_workflow"
	KindReasoningFinance = "reasoning_finance"
	KindTripPlanner      = "trip_planner"
)

// ErrUnknownKind is returned for catalog entries naming no known agent.
var ErrUnknownKind = errors.New("unknown agent kind")

// Entry selects one agent or team.
type Entry struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description,omitempty"`
}

// Catalog lists the agents and teams served by the playground.
type Catalog struct {
	Agents []Entry `yaml:"agents"`
	Teams  []Entry `yaml:"teams"`
}

// DefaultCatalog mirrors the classic playground: a web agent and a finance
// agent, plus the trip planner team.
func DefaultCatalog() Catalog {
	return Catalog{
		Agents: []Entry{
			{ID: "web-agent", Kind: KindWeb},
			{ID: "finance-agent", Kind: KindFinance},
		},
		Teams: []Entry{
			{ID: "trip-planner", Kind: KindTripPlanner},
		},
	}
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog and checks that ids are unique.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool)

	for _, e := range append(append([]Entry{}, c.Agents...), c.Teams...) {
		if e.ID == "" {
			return Catalog{}, fmt.Errorf("catalog entry of kind %q has no id", e.Kind)
		}

		if seen[e.ID] {
			return Catalog{}, fmt.Errorf("duplicate catalog id %q", e.ID)
		}

		seen[e.ID] = true
	}

	return c, nil
}

// Deps are the shared dependencies agents are built from.
type Deps struct {
	Model     model.Model
	Search    tool.Tool
	Finance   *finance.Client
	Knowledge *knowledge.Knowledge
}

func (d Deps) buildAgent(kind string) (core.Agent, error) {
	switch kind {
	case KindWeb:
		return agents.NewPlaygroundWebAgent(d.Model, d.Search), nil
	case KindFinance:
		return agents.NewPlaygroundFinanceAgent(d.Model, d.Finance), nil
	case KindStockPrice:
		return agents.NewStockPriceAgent(d.Model, d.Finance), nil
	case KindKnowledge:
		if d.Knowledge == nil {
			return nil, errors.New("knowledge agent requires a knowledge base")
		}

		return agents.NewKnowledgeAgent(d.Model, d.Knowledge), nil
	case KindTripAdvisor:
		return agents.NewTripAdvisor(d.Model, d.Search), nil
	case KindClinic:
		return agents.NewClinicAgent(d.Model), nil
	case KindCacheWorkflow:
		return agents.NewCacheWorkflow(d.Model), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func (d Deps) buildTeam(kind string) (core.Agent, error) {
	switch kind {
	case KindReasoningFinance:
		return agents.NewReasoningFinanceTeam(d.Model, d.Search, d.Finance)
	case KindTripPlanner:
		return agents.NewTripPlannerTeam(d.Model, d.Search)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
