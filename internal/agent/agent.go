// Package agent implements the survival loop: a driver that runs one cycle
// at a time, a survival gate that picks the death or active branch from a
// fresh balance reading, the sequences for each branch, and the time-gated
// feedback and mention-reply subcycles.
package agent

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vesperlabs/vesper/internal/cloud/gcp"
	"github.com/vesperlabs/vesper/internal/prompt"
)

// Defaults for the economic parameters and cadence.
var (
	// DefaultSurvivalThreshold is the balance below which a cycle is terminal.
	DefaultSurvivalThreshold = decimal.RequireFromString("0.005")
	// DefaultUpkeepAmount is the fixed debit charged at the start of every
	// active cycle.
	DefaultUpkeepAmount = decimal.RequireFromString("0.005")
)

const (
	// DefaultInterval is the pause between the end of one cycle and the
	// start of the next.
	DefaultInterval = 1800 * time.Second
	// DefaultFeedbackInterval gates the feedback subcycle.
	DefaultFeedbackInterval = 24 * time.Hour
	// DefaultRecentPostWindow is how many recent posts the follow-up tweet
	// must stay thematically distinct from.
	DefaultRecentPostWindow = 10
)

// Config holds the agent's runtime parameters.
type Config struct {
	// Name is the persona name used in public log lines.
	Name string
	// Interval between cycles, end-of-cycle to start-of-next.
	Interval time.Duration
	// SurvivalThreshold selects the death branch when the balance drops
	// below it.
	SurvivalThreshold decimal.Decimal
	// UpkeepAmount is debited every active cycle.
	UpkeepAmount decimal.Decimal
	// UpkeepRecipient receives the upkeep debit.
	UpkeepRecipient string
	// FeedbackInterval is the minimum gap between feedback solicitations.
	FeedbackInterval time.Duration
	// RecentPostWindow is the number of timeline posts fed to the follow-up
	// composition.
	RecentPostWindow int
	// DisableFollowUp skips the optional follow-up tweet after active cycles.
	DisableFollowUp bool
}

// Params bundles the collaborators for New. Everything is injected; the
// agent holds no global state.
type Params struct {
	Config      Config
	Ledger      Ledger
	Social      Social
	Store       Store
	Engine      Engine
	Prompts     prompt.Templates
	CycleLogger *gcp.CycleLogger
	Logger      *log.Logger
}

// Agent drives one autonomous actor through repeated survival cycles.
type Agent struct {
	cfg      Config
	ledger   Ledger
	social   Social
	store    Store
	engine   Engine
	prompts  prompt.Templates
	cycleLog *gcp.CycleLogger
	logger   *log.Logger
	cycle    int
}

// New validates the collaborators and applies config defaults.
func New(p Params) (*Agent, error) {
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if p.Social == nil {
		return nil, fmt.Errorf("social client is required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("store client is required")
	}
	if p.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if p.Config.UpkeepRecipient == "" {
		return nil, fmt.Errorf("upkeep recipient is required")
	}

	cfg := p.Config
	if cfg.Name == "" {
		cfg.Name = "Vesper"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SurvivalThreshold.IsZero() {
		cfg.SurvivalThreshold = DefaultSurvivalThreshold
	}
	if cfg.UpkeepAmount.IsZero() {
		cfg.UpkeepAmount = DefaultUpkeepAmount
	}
	if cfg.FeedbackInterval <= 0 {
		cfg.FeedbackInterval = DefaultFeedbackInterval
	}
	if cfg.RecentPostWindow <= 0 {
		cfg.RecentPostWindow = DefaultRecentPostWindow
	}

	prompts := p.Prompts
	if prompts == (prompt.Templates{}) {
		prompts = prompt.Defaults()
	}

	logger := p.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[agent] ", log.LstdFlags)
	}

	return &Agent{
		cfg:      cfg,
		ledger:   p.Ledger,
		social:   p.Social,
		store:    p.Store,
		engine:   p.Engine,
		prompts:  prompts,
		cycleLog: p.CycleLogger,
		logger:   logger,
	}, nil
}
