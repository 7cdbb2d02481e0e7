package podfs

import (
	"fmt"
	"strings"
)

// Platform describes the operating system of the containers being browsed.
// It decides the filesystem root, the path separator and the commands used
// for listings and document reads.
type Platform string

const (
	// Linux containers: POSIX paths and coreutils.
	Linux Platform = "linux"
	// Windows containers: drive paths and PowerShell.
	Windows Platform = "windows"
)

// ParsePlatform accepts "linux", "windows" or "" (linux).
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case "", Linux:
		return Linux, nil
	case Windows:
		return Windows, nil
	default:
		return "", fmt.Errorf("unsupported container platform %q (supported: %s, %s)", s, Linux, Windows)
	}
}

// Root is the path of the synthetic root folder of every container.
func (p Platform) Root() string {
	if p == Windows {
		return `C:\`
	}
	return "/"
}

// Separator is the path separator appended when joining folder paths.
func (p Platform) Separator() string {
	if p == Windows {
		return `\`
	}
	return "/"
}

// ListCommand returns the command that lists dir with a trailing type marker
// on directories.
func (p Platform) ListCommand(dir string) []string {
	if p == Windows {
		return powershell(`Get-ChildItem -LiteralPath %s | %%{ if($_ -is [System.IO.DirectoryInfo]) {return $_.Name + '\'} else {$_.Name} }`, dir)
	}
	return []string{"ls", "-F", dir}
}

// ReadCommand returns the command that resolves a document of the given
// scheme at path.
func (p Platform) ReadCommand(scheme Scheme, path string) ([]string, error) {
	if p == Windows {
		switch scheme {
		case SchemeView:
			return powershell("type -LiteralPath %s", path), nil
		case SchemeFind:
			return powershell("Get-ChildItem -Recurse -Name -LiteralPath %s", path), nil
		case SchemeListDetailed:
			return powershell("Get-ChildItem -Force -LiteralPath %s", path), nil
		}
		return nil, fmt.Errorf("%w: unknown scheme %q", ErrInvalidIdentifier, scheme)
	}
	switch scheme {
	case SchemeView:
		return []string{"cat", path}, nil
	case SchemeFind:
		return []string{"find", path}, nil
	case SchemeListDetailed:
		return []string{"ls", "-al", path}, nil
	}
	return nil, fmt.Errorf("%w: unknown scheme %q", ErrInvalidIdentifier, scheme)
}

// powershell returns a single -Command script with path substituted as a
// single quoted literal. PowerShell joins the words after -Command into one
// script, so the path must never be passed as a separate argument.
func powershell(format, path string) []string {
	return []string{"powershell", "-NoProfile", "-Command", fmt.Sprintf(format, psQuote(path))}
}

// psQuote quotes s as a PowerShell single quoted string. Embedded quotes are
// doubled.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// isDirLine reports whether a listing line carries a directory marker.
func isDirLine(line string) bool {
	return strings.HasSuffix(line, "/") || strings.HasSuffix(line, `\`)
}
