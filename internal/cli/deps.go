package cli

import (
	"fmt"
	"path/filepath"

	"github.com/lucasnoah/vcfsubmit/internal/checks"
	"github.com/lucasnoah/vcfsubmit/internal/config"
	"github.com/lucasnoah/vcfsubmit/internal/db"
	"github.com/lucasnoah/vcfsubmit/internal/merge"
	"github.com/lucasnoah/vcfsubmit/internal/submission"
	"github.com/lucasnoah/vcfsubmit/internal/validation"
)

// newCommandRunner builds the runner used for external tools.
var newCommandRunner = func() checks.CommandRunner {
	return &checks.ExecRunner{}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}

// openDB opens and migrates the history database named in cfg, or the
// default one when cfg leaves it empty.
func openDB(cfg *config.Config) (*db.DB, func(), error) {
	dbPath := cfg.HistoryDB
	if dbPath == "" {
		var err error
		if dbPath, err = db.DefaultDBPath(); err != nil {
			return nil, nil, err
		}
	}
	d, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, func() { d.Close() }, nil
}

// submissionKey identifies the submission in the history database.
func submissionKey() string {
	abs, err := filepath.Abs(submissionFile)
	if err != nil {
		return submissionFile
	}
	return abs
}

// deps bundles everything a submission command works with.
type deps struct {
	cfg       *config.Config
	sub       *submission.Config
	history   *db.DB
	validator *validation.Validator
	cleanup   func()
}

// openDeps loads the tool config and the submission, opens the history
// database and wires a validator over them.
func openDeps() (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errs[0])
	}

	sub, err := submission.Load(submissionFile)
	if err != nil {
		return nil, err
	}

	d, cleanup, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	runner := newCommandRunner()
	merger := merge.NewBcftoolsMerger(runner, cfg.Merge.Bcftools, cfg.Merge.OutputDir, logger)
	v := validation.NewValidator(sub, merge.NewVCFDetector(logger), merger, d.Recorder(submissionKey()), logger)

	return &deps{cfg: cfg, sub: sub, history: d, validator: v, cleanup: cleanup}, nil
}
