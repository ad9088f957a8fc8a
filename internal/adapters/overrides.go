package adapters

import (
	"os"
	"path/filepath"

	pelletiertoml "github.com/pelletier/go-toml/v2"

	"pymigrate/internal/migerrors"
)

// VersionOverride pins the exact (from, to) version pair to migrate a
// library across, bypassing the PyPI version resolver — for a project
// that wants to migrate to a specific pre-release, or that is offline and
// must supply both ends of the range by hand.
type VersionOverride struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// overridesFile is "<project-root>/.pymigrate-overrides.toml", a small
// hand-authored file distinct from the main .pymigrate.toml engine
// config: it pins per-library version ranges rather than engine
// behavior, so it gets its own format and its own parser rather than
// growing another top-level table on config.Config.
type overridesFile struct {
	Libraries map[string]VersionOverride `toml:"libraries"`
}

// LoadVersionOverrides reads "<projectRoot>/.pymigrate-overrides.toml" if
// present, using go-toml/v2's stricter decoder (surfaces unknown-key
// typos in a hand-edited pin file, which the lenient pyproject.toml
// parser deliberately doesn't for third-party files it doesn't own).
func LoadVersionOverrides(projectRoot string) (map[string]VersionOverride, error) {
	path := filepath.Join(projectRoot, ".pymigrate-overrides.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "reading version overrides", err)
	}

	var doc overridesFile
	if err := pelletiertoml.Unmarshal(data, &doc); err != nil {
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "parsing version overrides", err)
	}
	return doc.Libraries, nil
}
