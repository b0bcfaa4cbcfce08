package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/analytics"
	"github.com/pathwise/pathwise/internal/catalog"
	"github.com/pathwise/pathwise/internal/mastery"
	"github.com/pathwise/pathwise/internal/oracle"
	"github.com/pathwise/pathwise/internal/profile"
	"github.com/pathwise/pathwise/internal/recommend"
	"github.com/pathwise/pathwise/internal/skillgraph"
	"github.com/pathwise/pathwise/internal/store"
)

// world wires every service over one open database. Commands build it,
// use it, and close it.
type world struct {
	st         *store.Store
	catalog    catalog.Catalog
	tracker    *mastery.Tracker
	profiles   *profile.Store
	engine     *recommend.Engine
	aggregator *analytics.Aggregator
	logger     *zap.Logger
}

func (w *world) Close() error {
	_ = w.logger.Sync()
	return w.st.Close()
}

func openWorld(cmd *cobra.Command) (*world, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	trees, err := loadCurriculum(cmd)
	if err != nil {
		st.Close()
		return nil, err
	}
	curriculum := skillgraph.NewStore()
	for _, tree := range trees {
		if err := curriculum.UpsertSkillTree(tree); err != nil {
			st.Close()
			return nil, fmt.Errorf("curriculum %s: %w", tree.SubjectArea, err)
		}
	}

	items, err := loadCatalog(cmd)
	if err != nil {
		st.Close()
		return nil, err
	}
	cat := catalog.NewMemoryCatalog(items)

	events := st.Events()
	profiles := profile.NewStore(st.KV(), events, logger)
	tracker := mastery.NewTracker(curriculum, st.KV(), events,
		mastery.DefaultAchievements(curriculum.Subjects()), logger)

	// The oracle is optional: without an API key the ensemble simply
	// runs without its external member.
	var oracleClient *oracle.Client
	if cfg, ok := oracle.DiscoverConfig(); ok {
		provider, err := oracle.NewProvider(cmd.Context(), cfg, events, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "oracle provider not configured:", err)
		} else {
			oracleClient = oracle.NewClient(provider, cfg, logger)
		}
	}

	return &world{
		st:         st,
		catalog:    cat,
		tracker:    tracker,
		profiles:   profiles,
		engine:     recommend.NewEngine(cat, profiles, tracker, oracleClient, events, logger),
		aggregator: analytics.NewAggregator(profiles, cat, events, logger),
		logger:     logger,
	}, nil
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop(), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func loadCurriculum(cmd *cobra.Command) ([]*skillgraph.SkillTree, error) {
	path, _ := cmd.Flags().GetString("curriculum")
	if path == "" {
		return defaultCurriculum(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum: %w", err)
	}
	var trees []*skillgraph.SkillTree
	if err := json.Unmarshal(data, &trees); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	return trees, nil
}

func loadCatalog(cmd *cobra.Command) ([]catalog.ContentItem, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		return defaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var items []catalog.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return items, nil
}
