package director

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultScenariosDir is where generated scenarios land unless the caller
// asked for an explicit output path.
const DefaultScenariosDir = "output/scenarios"

// GenerateScenarioPath returns a timestamped path under the scenarios
// directory.
func GenerateScenarioPath() string {
	name := fmt.Sprintf("scenario_%s.yaml", time.Now().Format("2006-01-02_15-04-05"))
	return filepath.Join(DefaultScenariosDir, name)
}

// FindLatestScenario returns the most recently modified .yaml file in dir.
func FindLatestScenario(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать каталог сценариев: %w", err)
	}

	latest := ""
	var latestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = filepath.Join(dir, entry.Name())
			latestMod = info.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("в %s нет файлов сценариев", dir)
	}
	return latest, nil
}
