package configure

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// versionToken marks the declaration line in the header.
const versionToken = "PNGQUANT_VERSION"

var versionPattern = regexp.MustCompile(`[0-9]+\.[0-9]+(\.[0-9]+)*`)

// ReadVersion extracts the library version from its declaring header. The
// header is a read-only input: the first line naming the version token is
// pattern-matched for a dotted version number.
func ReadVersion(headerPath string) (string, error) {
	f, err := os.Open(headerPath)
	if err != nil {
		return "", &EnvironmentError{Reason: "cannot read version header " + headerPath + ": " + err.Error()}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, versionToken) {
			continue
		}
		if v := versionPattern.FindString(line); v != "" {
			return v, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &EnvironmentError{Reason: "cannot read version header " + headerPath + ": " + err.Error()}
	}
	return "", &EnvironmentError{Reason: "no " + versionToken + " declaration found in " + headerPath}
}
