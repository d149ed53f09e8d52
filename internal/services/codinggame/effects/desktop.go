package effects

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoDesktopFile is returned when no desktop entry exists for an app.
var ErrNoDesktopFile = errors.New("no desktop file")

// XDGDesktopLocator searches the applications directories under Dirs.
type XDGDesktopLocator struct {
	Dirs []string
}

var _ DesktopLocator = XDGDesktopLocator{}

// NewXDGDesktopLocator builds a locator from XDG_DATA_HOME and XDG_DATA_DIRS.
func NewXDGDesktopLocator() XDGDesktopLocator {
	var dirs []string
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		dirs = append(dirs, home)
	} else if userHome, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(userHome, ".local", "share"))
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, dir := range strings.Split(dataDirs, ":") {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return XDGDesktopLocator{Dirs: dirs}
}

// DesktopFile returns the first applications/<app> entry found, trying the
// name as given and with a .desktop suffix.
func (l XDGDesktopLocator) DesktopFile(app string) (string, error) {
	if app == "" {
		return "", fmt.Errorf("%w: empty app id", ErrNoDesktopFile)
	}
	candidates := []string{app}
	if !strings.HasSuffix(app, ".desktop") {
		candidates = append(candidates, app+".desktop")
	}
	for _, dir := range l.Dirs {
		for _, name := range candidates {
			path := filepath.Join(dir, "applications", name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNoDesktopFile, app)
}
