package usecase

import (
	"regexp"
	"strings"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// ExtractPackagesUseCase pulls package references out of install
// commands so registry docs can be fetched for them.

type ExtractPackagesUseCase struct{}

var (
	pipInstallPattern = regexp.MustCompile(`^\s*(?:python3?\s+-m\s+)?pip3?\s+install\s+(.+)$`)
	goGetPattern      = regexp.MustCompile(`^\s*go\s+(?:get|install)\s+(.+)$`)
	npmInstallPattern = regexp.MustCompile(`^\s*(?:npm\s+(?:install|i|add)|yarn\s+add|pnpm\s+add)\s+(.+)$`)

	flagPattern = regexp.MustCompile(`^-{1,2}\S*$`)
)

// Execute parses the command line and returns the pins it references.
// Commands that are not installs return an empty slice.
func (uc *ExtractPackagesUseCase) Execute(command string) []domain.PackagePin {
	if m := pipInstallPattern.FindStringSubmatch(command); m != nil {
		return parsePipArgs(m[1], command)
	}
	if m := goGetPattern.FindStringSubmatch(command); m != nil {
		return parseGoArgs(m[1], command)
	}
	if m := npmInstallPattern.FindStringSubmatch(command); m != nil {
		return parseNpmArgs(m[1], command)
	}
	return nil
}

func parsePipArgs(args, source string) []domain.PackagePin {
	var pins []domain.PackagePin
	skipNext := false
	for _, arg := range splitArgs(args) {
		if skipNext {
			skipNext = false
			continue
		}
		// Requirements files and local paths are not registry packages.
		if arg == "-r" || arg == "--requirement" || arg == "-c" || arg == "--constraint" {
			skipNext = true
			continue
		}
		if strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, ".") || strings.HasPrefix(arg, "/") {
			continue
		}
		name, version := arg, ""
		if idx := strings.Index(arg, "=="); idx >= 0 {
			name, version = arg[:idx], arg[idx+2:]
		} else if idx := strings.IndexAny(arg, "<>~!"); idx >= 0 {
			name = arg[:idx]
		}
		// Strip extras like requests[security].
		if idx := strings.Index(name, "["); idx >= 0 {
			name = name[:idx]
		}
		if name == "" {
			continue
		}
		pins = append(pins, domain.NewPackagePin(name, version, domain.EcosystemPyPI, source))
	}
	return pins
}

func parseGoArgs(args, source string) []domain.PackagePin {
	var pins []domain.PackagePin
	for _, arg := range splitArgs(args) {
		if flagPattern.MatchString(arg) || arg == "./..." || strings.HasPrefix(arg, ".") {
			continue
		}
		name, version := arg, ""
		if idx := strings.LastIndex(arg, "@"); idx > 0 {
			name, version = arg[:idx], arg[idx+1:]
		}
		if version == "latest" {
			version = ""
		}
		if !strings.Contains(name, ".") {
			// Bare tool names without a module path are not lookupable.
			continue
		}
		pins = append(pins, domain.NewPackagePin(name, version, domain.EcosystemGo, source))
	}
	return pins
}

func parseNpmArgs(args, source string) []domain.PackagePin {
	var pins []domain.PackagePin
	for _, arg := range splitArgs(args) {
		if flagPattern.MatchString(arg) || strings.HasPrefix(arg, ".") || strings.HasPrefix(arg, "/") {
			continue
		}
		name, version := arg, ""
		// Scoped packages start with @, so only split on a later @.
		if idx := strings.LastIndex(arg, "@"); idx > 0 {
			name, version = arg[:idx], arg[idx+1:]
		}
		if version == "latest" {
			version = ""
		}
		if name == "" {
			continue
		}
		pins = append(pins, domain.NewPackagePin(name, version, domain.EcosystemNPM, source))
	}
	return pins
}

func splitArgs(args string) []string {
	return strings.Fields(args)
}
