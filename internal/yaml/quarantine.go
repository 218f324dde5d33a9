package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/flowguide/internal/logging"
)

// QuarantineDir is the subdirectory of the state dir holding corrupted files.
const QuarantineDir = "quarantine"

// RecoveryAction reports how RecoverCorruptedFile repaired a file.
type RecoveryAction string

const (
	RecoveredFromBackup RecoveryAction = "backup"
	RecoveredSkeleton   RecoveryAction = "skeleton"
)

// Quarantine moves filePath into stateDir/quarantine with a timestamp suffix
// and returns the new location.
func Quarantine(stateDir, filePath string, logger *logging.Logger) (string, error) {
	quarantineDir := filepath.Join(stateDir, QuarantineDir)
	if err := os.MkdirAll(quarantineDir, 0755); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}

	baseName := filepath.Base(filePath)
	timestamp := time.Now().Format("20060102T150405.000")
	quarantinePath := filepath.Join(quarantineDir, fmt.Sprintf("%s.%s.corrupt", baseName, timestamp))

	if err := os.Rename(filePath, quarantinePath); err != nil {
		return "", fmt.Errorf("move to quarantine: %w", err)
	}

	logger.Warnf("quarantined corrupted file: %s -> %s", filePath, quarantinePath)
	return quarantinePath, nil
}

// RestoreFromBackup copies the .bak of filePath back into place, provided
// the backup carries a valid header of fileType.
func RestoreFromBackup(filePath, fileType string, logger *logging.Logger) error {
	bakPath := BackupPath(filePath)
	content, err := os.ReadFile(bakPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("no backup file: %s", bakPath)
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if err := parsesAsYAML(content); err != nil {
		return fmt.Errorf("backup YAML is also corrupted: %w", err)
	}
	if err := ValidateSchemaHeaderFromBytes(content, fileType); err != nil {
		return fmt.Errorf("backup header invalid: %w", err)
	}

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}

	logger.Infof("restored from backup: %s -> %s", bakPath, filePath)
	return nil
}

// GenerateSkeleton writes the minimal valid document of fileType to filePath.
func GenerateSkeleton(filePath, fileType string, logger *logging.Logger) error {
	content, err := yamlv3.Marshal(skeletonForType(fileType))
	if err != nil {
		return fmt.Errorf("marshal skeleton: %w", err)
	}

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("write skeleton: %w", err)
	}

	logger.Infof("generated skeleton: %s (type: %s)", filePath, fileType)
	return nil
}

// RecoverCorruptedFile quarantines filePath, then restores the backup or,
// failing that, writes a skeleton.
func RecoverCorruptedFile(stateDir, filePath, fileType string, logger *logging.Logger) (RecoveryAction, error) {
	if _, err := Quarantine(stateDir, filePath, logger); err != nil {
		return "", fmt.Errorf("quarantine failed: %w", err)
	}

	err := RestoreFromBackup(filePath, fileType, logger)
	if err == nil {
		return RecoveredFromBackup, nil
	}
	logger.Warnf("backup restore failed for %s: %v; falling back to skeleton", filePath, err)

	if err := GenerateSkeleton(filePath, fileType, logger); err != nil {
		return "", fmt.Errorf("skeleton generation failed: %w", err)
	}
	return RecoveredSkeleton, nil
}

func skeletonForType(fileType string) any {
	switch fileType {
	case FileTypeSelection:
		return map[string]any{
			"schema_version": CurrentSchemaVersion,
			"file_type":      FileTypeSelection,
			"flows":          map[string]any{},
			"courses":        []any{},
		}
	default:
		return map[string]any{
			"schema_version": CurrentSchemaVersion,
			"file_type":      fileType,
		}
	}
}
