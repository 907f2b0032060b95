// Package cli assembles calscribe's command-line surface: cobra commands
// bound to viper-resolved configuration, wired against the same
// orchestrator used by every other entry point (spec.md §6).
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/kestrelsched/calscribe/ai"
	"github.com/kestrelsched/calscribe/allot"
	"github.com/kestrelsched/calscribe/calbridge"
	"github.com/kestrelsched/calscribe/eventcreator"
	"github.com/kestrelsched/calscribe/internal/profile"
	"github.com/kestrelsched/calscribe/internal/tz"
	"github.com/kestrelsched/calscribe/orchestrator"
	"github.com/kestrelsched/calscribe/pipeline"
	"github.com/kestrelsched/calscribe/scheduler"
	"github.com/kestrelsched/calscribe/store"
	sqlitestore "github.com/kestrelsched/calscribe/store/db/sqlite"
)

// App carries the flags every subcommand reads, plus the lazily-built
// service graph behind them.
type App struct {
	Timezone string
	DBPath   string
	JSON     bool

	profile *profile.Profile
	loc     *time.Location

	db       *sqlitestore.DB
	st       *store.Store
	oc       *orchestrator.Orchestrator
	ec       *eventcreator.EventCreator
	bridge   *calbridge.Client
	allotter *allot.Allotter
}

// Init resolves the profile (flags over env over defaults) and opens the
// database. Subcommands call this once at the start of RunE.
func (a *App) Init() error {
	p := profile.Default()
	p.FromEnv()
	if a.Timezone != "" {
		p.Timezone = a.Timezone
	}
	if a.DBPath != "" {
		p.DBPath = a.DBPath
	}
	a.profile = p

	loc, err := tz.Parse(p.Timezone)
	if err != nil {
		return fmt.Errorf("resolve timezone: %w", err)
	}
	a.loc = loc

	db, err := sqlitestore.NewDB(p.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.st = store.New(db)

	a.bridge = calbridge.NewClient(p.CalBridgeBase, p.CalBridgeTimeout)

	llm := ai.NewProvider(&ai.Config{
		BaseURL: p.OllamaBase + "/v1",
		APIKey:  p.OllamaAPIKey,
		Model:   p.OllamaModel,
		Timeout: p.LLMTimeout,
	})

	opts := scheduler.Options{WorkStartHour: p.WorkStartHour, WorkEndHour: p.WorkEndHour}
	a.allotter = allot.NewAllotter(a.bridge, p.HolidayCalendarTitle, opts)
	a.ec = eventcreator.NewEventCreator(a.bridge, a.st)

	a.oc = orchestrator.New(
		pipeline.NewSlotExtractor(llm),
		pipeline.NewAbsoluteResolver(llm),
		pipeline.NewTimeStandardizer(),
		pipeline.NewDifficultyAnalyzer(llm),
		pipeline.NewDecomposer(llm),
		a.allotter,
		a.ec,
		a.bridge,
	)

	return nil
}

// Close releases the database connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
