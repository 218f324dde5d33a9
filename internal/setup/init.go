// Package setup handles flowguide project initialization.
package setup

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/flowguide/internal/model"
	"github.com/msageha/flowguide/internal/selection"
	atomicyaml "github.com/msageha/flowguide/internal/yaml"
	"github.com/msageha/flowguide/templates"
)

// Dir is the per-project state directory.
const Dir = ".flowguide"

const (
	ConfigFile  = "config.yaml"
	CatalogFile = "catalog.yaml"
)

// Run initializes the .flowguide/ directory in projectDir.
// projectName overrides the auto-detected name (defaults to directory basename if empty).
func Run(projectDir, projectName string) error {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	base := filepath.Join(absDir, Dir)

	if _, err := os.Stat(base); err == nil {
		return fmt.Errorf("%s already exists", base)
	}

	if err := os.MkdirAll(filepath.Join(base, atomicyaml.QuarantineDir), 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", atomicyaml.QuarantineDir, err)
	}

	// Local copy of the embedded dataset so it can be edited per project.
	if err := copyTemplateFile(CatalogFile, filepath.Join(base, CatalogFile)); err != nil {
		return err
	}

	cfg, err := generateConfig(absDir, projectName)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("generated config invalid: %v", errs[0])
	}
	if err := atomicyaml.AtomicWrite(filepath.Join(base, ConfigFile), cfg); err != nil {
		return fmt.Errorf("write %s: %w", ConfigFile, err)
	}

	if err := writeEmptySelection(filepath.Join(base, cfg.Selection.Path)); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Selection.Path, err)
	}

	return nil
}

func copyTemplateFile(name, dst string) error {
	data, err := fs.ReadFile(templates.FS, name)
	if err != nil {
		return fmt.Errorf("read template %s: %w", name, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func generateConfig(projectDir, projectName string) (*model.Config, error) {
	data, err := fs.ReadFile(templates.FS, ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("read config template: %w", err)
	}

	cfg := model.DefaultConfig()
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}

	if projectName != "" {
		cfg.Project.Name = projectName
	} else {
		cfg.Project.Name = filepath.Base(projectDir)
	}
	cfg.Project.Created = time.Now().Format(time.RFC3339)
	cfg.Catalog.Path = CatalogFile

	return &cfg, nil
}

func writeEmptySelection(path string) error {
	st := selection.New()
	st.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	data, err := selection.Marshal(st)
	if err != nil {
		return err
	}
	return atomicyaml.WriteStateFile(path, atomicyaml.FileTypeSelection, data)
}
